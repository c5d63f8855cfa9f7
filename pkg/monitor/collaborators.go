package monitor

// IndicatorState is what the status LED shows.
type IndicatorState uint8

const (
	IndicatorIdle IndicatorState = iota
	IndicatorInProgress
	IndicatorSuccess
	IndicatorError
)

// String returns the indicator state name.
func (s IndicatorState) String() string {
	switch s {
	case IndicatorIdle:
		return "Idle"
	case IndicatorInProgress:
		return "InProgress"
	case IndicatorSuccess:
		return "Success"
	case IndicatorError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Indicator drives the visual status (LED) of the device.
type Indicator interface {
	SetState(s IndicatorState)
}

// IECache holds the WPS information element content advertised in beacons
// and probe responses while a session is open.
type IECache interface {
	Update(mode Mode, pushButton bool)
	Clear()
}

// Override is flagged while the add-client window is open, so other
// components keep the registrar selected.
type Override interface {
	SetOverride(active bool)
}

// GetConf looks up a configuration value by name.
type GetConf func(name string) (string, bool)

type nopIndicator struct{}

func (nopIndicator) SetState(IndicatorState) {}

type nopIECache struct{}

func (nopIECache) Update(Mode, bool) {}
func (nopIECache) Clear()            {}

type nopOverride struct{}

func (nopOverride) SetOverride(bool) {}
