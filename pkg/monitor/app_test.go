package monitor

import (
	"errors"
	"net"
	"testing"
	"time"

	"github.com/backkem/wps/pkg/regproto"
	"github.com/backkem/wps/pkg/registration"
	"github.com/backkem/wps/pkg/storage"
	"github.com/backkem/wps/pkg/tlv"
	"github.com/google/uuid"
	"github.com/pion/logging"
)

var testCred = &regproto.Credential{
	SSID:       []byte("wps-home"),
	AuthType:   regproto.AuthWPA2PSK,
	EncrType:   regproto.EncrAES,
	NetworkKey: []byte("correct horse battery"),
	MACAddress: net.HardwareAddr{0x02, 0xaa, 0xbb, 0xcc, 0xdd, 0xee},
}

func registrarFactory() *SessionFactory {
	return &SessionFactory{
		UUID:          uuid.New(),
		Device:        registration.DeviceInfo{Manufacturer: "Acme", ModelName: "Router", DeviceName: "ap-1"},
		Credential:    testCred,
		LoggerFactory: logging.NewDefaultLoggerFactory(),
	}
}

func enrolleeFactory() *SessionFactory {
	return &SessionFactory{
		UUID:          uuid.New(),
		MACAddress:    net.HardwareAddr{0x02, 0x11, 0x22, 0x33, 0x44, 0x55},
		Device:        registration.DeviceInfo{Manufacturer: "Acme", ModelName: "Sensor", DeviceName: "sensor-1"},
		LoggerFactory: logging.NewDefaultLoggerFactory(),
	}
}

type peerSide struct {
	d     *Dispatcher
	ui    *fakeTransport
	eap   *fakeTransport
	store *storage.Memory
}

func newPeerSide(t *testing.T, f *SessionFactory) *peerSide {
	t.Helper()
	p := &peerSide{ui: newFake(KindUI), eap: newFake(KindEAP), store: storage.NewMemory()}
	d, err := New(Config{
		Interfaces:    []string{"wlan0"},
		Factory:       f,
		Store:         p.store,
		Now:           func() time.Time { return base },
		LoggerFactory: logging.NewDefaultLoggerFactory(),
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	d.Registry().Add(p.ui)
	d.Registry().Add(p.eap)
	if err := d.Open(); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	p.d = d
	return p
}

// connect opens both sessions, links their EAP transports and kicks the
// enrollee with the start trigger.
func connect(t *testing.T, registrarPIN, enrolleePIN string) (reg, enr *peerSide) {
	t.Helper()
	reg = newPeerSide(t, registrarFactory())
	enr = newPeerSide(t, enrolleeFactory())
	reg.eap.peer = enr.eap
	enr.eap.peer = reg.eap

	reg.ui.queue = append(reg.ui.queue, []byte("cmd=set pin="+registrarPIN))
	reg.d.RunOnce(base)
	enr.ui.queue = append(enr.ui.queue, []byte("cmd=set mode=sta_enrollee pin="+enrolleePIN))
	enr.d.RunOnce(base)
	if reg.d.ActiveApp() == nil || enr.d.ActiveApp() == nil {
		t.Fatal("sessions not opened")
	}
	enr.eap.queue = append(enr.eap.queue, []byte{})
	return reg, enr
}

// pump alternates both loops until neither handles a packet.
func pump(reg, enr *peerSide) {
	for i := 0; i < 32; i++ {
		a := reg.d.RunOnce(base)
		b := enr.d.RunOnce(base)
		if !a && !b {
			return
		}
	}
}

func TestSessionApp_EndToEnd(t *testing.T) {
	reg, enr := connect(t, "12345670", "12345670")
	pump(reg, enr)

	if reg.d.ActiveApp() != nil || enr.d.ActiveApp() != nil {
		t.Fatal("sessions still active")
	}
	if got := reg.d.LastOutcome(); got.Mode != ModeAPRegistrar || got.Result.Status != StatusSuccess {
		t.Errorf("registrar outcome = %v", got)
	}
	if got := enr.d.LastOutcome(); got.Mode != ModeSTAEnrollee || got.Result.Status != StatusSuccess {
		t.Errorf("enrollee outcome = %v", got)
	}

	// M2, M4, M6, M8, ACK from the registrar; M1, M3, M5, M7, Done from the enrollee.
	if len(reg.eap.sent) != 5 || len(enr.eap.sent) != 5 {
		t.Errorf("messages sent: registrar %d, enrollee %d", len(reg.eap.sent), len(enr.eap.sent))
	}

	cred, err := enr.store.LoadCredential()
	if err != nil {
		t.Fatalf("LoadCredential failed: %v", err)
	}
	if string(cred.SSID) != string(testCred.SSID) || string(cred.NetworkKey) != string(testCred.NetworkKey) {
		t.Errorf("stored credential = %+v", cred)
	}
}

func TestSessionApp_WrongPIN(t *testing.T) {
	reg, enr := connect(t, "12345670", "1234")
	// M1, M2, M3, M4 and the enrollee's NACK.
	for i := 0; i < 4; i++ {
		reg.d.RunOnce(base)
		enr.d.RunOnce(base)
	}

	if got := enr.d.LastOutcome().Result; got.Code != CodePINFailure || got.LastMessage {
		t.Errorf("enrollee outcome = %v (last %v)", got, got.LastMessage)
	}
	if got := reg.d.LastOutcome().Result; got.Code != CodePINFailure || got.LastMessage {
		t.Errorf("registrar outcome = %v (last %v)", got, got.LastMessage)
	}
	if !reg.d.Window().Enabled() {
		t.Fatal("registrar did not reopen the add-client window")
	}

	// The window serves the next attempt with the same PIN.
	reg.d.RunOnce(base)
	if reg.d.ActiveApp() == nil {
		t.Fatal("window did not reopen the registrar session")
	}
}

func TestSessionApp_Process(t *testing.T) {
	t.Run("registrar ignores empty packet", func(t *testing.T) {
		app, err := registrarFactory().NewApp(SessionRequest{Mode: ModeAPRegistrar, Password: []byte("12345670")})
		if err != nil {
			t.Fatalf("NewApp failed: %v", err)
		}
		if got := app.Process(nil, newFake(KindEAP)); got != resultIgnored {
			t.Errorf("Process(empty) = %v", got)
		}
	})

	t.Run("enrollee starts once", func(t *testing.T) {
		app, err := enrolleeFactory().NewApp(SessionRequest{Mode: ModeSTAEnrollee, Password: []byte("12345670")})
		if err != nil {
			t.Fatalf("NewApp failed: %v", err)
		}
		tr := newFake(KindEAP)
		if got := app.Process(nil, tr); got != resultContinue {
			t.Fatalf("start = %v", got)
		}
		if len(tr.sent) != 1 {
			t.Fatalf("sent %d messages, want M1", len(tr.sent))
		}
		mt, err := regproto.GetMessageType(tlv.NewBufferFrom(tr.sent[0]))
		if err != nil || mt != tlv.MsgM1 {
			t.Errorf("first message = %v, %v", mt, err)
		}
		if got := app.Process(nil, tr); got != resultIgnored || len(tr.sent) != 1 {
			t.Errorf("second start = %v, sent %d", got, len(tr.sent))
		}
		if got := app.Process([]byte{0x10}, tr); got != resultIgnored {
			t.Errorf("malformed packet = %v, want ignored", got)
		}
	})

	t.Run("send failure", func(t *testing.T) {
		app, _ := enrolleeFactory().NewApp(SessionRequest{Mode: ModeSTAEnrollee, Password: []byte("12345670")})
		tr := newFake(KindEAP)
		tr.sendErr = errors.New("link down")
		if got := app.Process(nil, tr); got != failure(CodeMessage) {
			t.Errorf("Process = %v, want Failure(Message)", got)
		}
	})

	t.Run("closed", func(t *testing.T) {
		app, _ := enrolleeFactory().NewApp(SessionRequest{Mode: ModeSTAEnrollee, Password: []byte("12345670")})
		app.Close()
		if got := app.Process(nil, newFake(KindEAP)); got != resultIgnored {
			t.Errorf("Process after Close = %v", got)
		}
	})
}

func TestSessionApp_MalformedMessage(t *testing.T) {
	// M1 without any of its required attributes.
	m1, err := tlv.NewBuilder().
		AddUint8(tlv.AttrVersion, tlv.Version10).
		AddUint8(tlv.AttrMessageType, uint8(tlv.MsgM1)).
		Bytes()
	if err != nil {
		t.Fatalf("Bytes failed: %v", err)
	}

	t.Run("app", func(t *testing.T) {
		app, err := registrarFactory().NewApp(SessionRequest{Mode: ModeAPRegistrar, Password: []byte("12345670")})
		if err != nil {
			t.Fatalf("NewApp failed: %v", err)
		}
		if got := app.Process(m1, newFake(KindEAP)); got != failure(CodeMessage) {
			t.Errorf("Process(malformed M1) = %v, want Failure(Message)", got)
		}
	})

	t.Run("dispatcher frees the slot", func(t *testing.T) {
		reg := newPeerSide(t, registrarFactory())
		enr := newPeerSide(t, enrolleeFactory())
		reg.eap.peer = enr.eap
		enr.eap.peer = reg.eap

		reg.ui.queue = append(reg.ui.queue, []byte("cmd=set pin=12345670"))
		reg.d.RunOnce(base)
		reg.eap.queue = append(reg.eap.queue, m1)
		reg.d.RunOnce(base)

		if reg.d.ActiveApp() != nil {
			t.Fatal("failed registrar still holds the active slot")
		}
		if got := reg.d.LastOutcome().Result; got != failure(CodeMessage) {
			t.Errorf("outcome = %v, want Failure(Message)", got)
		}

		// A genuine exchange right after succeeds.
		reg.ui.queue = append(reg.ui.queue, []byte("cmd=set pin=12345670"))
		reg.d.RunOnce(base)
		enr.ui.queue = append(enr.ui.queue, []byte("cmd=set mode=sta_enrollee pin=12345670"))
		enr.d.RunOnce(base)
		enr.eap.queue = append(enr.eap.queue, []byte{})
		pump(reg, enr)

		if got := reg.d.LastOutcome().Result; got.Status != StatusSuccess {
			t.Errorf("second registrar outcome = %v", got)
		}
		if got := enr.d.LastOutcome().Result; got.Status != StatusSuccess {
			t.Errorf("enrollee outcome = %v", got)
		}
	})
}

func TestSessionFactory_Errors(t *testing.T) {
	f := registrarFactory()
	if _, err := f.NewApp(SessionRequest{Mode: ModeNone, Password: []byte("1234")}); !errors.Is(err, ErrInvalidMode) {
		t.Errorf("ModeNone error = %v, want ErrInvalidMode", err)
	}
	if _, err := f.NewApp(SessionRequest{Mode: ModeAPRegistrar}); !errors.Is(err, registration.ErrInvalidConfig) {
		t.Errorf("empty password error = %v, want ErrInvalidConfig", err)
	}
	// An enrollee needs its MAC address.
	if _, err := f.NewApp(SessionRequest{Mode: ModeAPEnrollee, Password: []byte("1234")}); !errors.Is(err, registration.ErrInvalidConfig) {
		t.Errorf("enrollee without MAC error = %v, want ErrInvalidConfig", err)
	}
}

func TestSessionApp_CheckTimeout(t *testing.T) {
	f := enrolleeFactory()
	f.Timeout = 10 * time.Second
	app, err := f.NewApp(SessionRequest{Mode: ModeSTAEnrollee, Password: []byte("12345670")})
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}

	if got := app.CheckTimeout(base); got != resultContinue {
		t.Fatalf("first check = %v", got)
	}
	if got := app.CheckTimeout(base.Add(10 * time.Second)); got != resultContinue {
		t.Errorf("check at limit = %v", got)
	}

	// Activity restarts the clock.
	app.Process(nil, newFake(KindEAP))
	if got := app.CheckTimeout(base.Add(15 * time.Second)); got != resultContinue {
		t.Errorf("check after activity = %v", got)
	}
	if got := app.CheckTimeout(base.Add(26 * time.Second)); got != failure(CodeTimeout) {
		t.Errorf("check after silence = %v, want Failure(Timeout)", got)
	}
}
