package main

import (
	"github.com/backkem/wps/pkg/monitor"
	"github.com/pion/logging"
)

// logStatus reports the indicator, IE and override state through the
// log. Boards with an LED or a driver hook replace it.
type logStatus struct {
	log logging.LeveledLogger
}

func (s *logStatus) SetState(st monitor.IndicatorState) {
	s.log.Infof("indicator: %v", st)
}

func (s *logStatus) Update(mode monitor.Mode, pushButton bool) {
	s.log.Debugf("ie: selected registrar mode=%v pbc=%v", mode, pushButton)
}

func (s *logStatus) Clear() {
	s.log.Debug("ie: cleared")
}

func (s *logStatus) SetOverride(active bool) {
	s.log.Debugf("override: %v", active)
}

var (
	_ monitor.Indicator = (*logStatus)(nil)
	_ monitor.IECache   = (*logStatus)(nil)
	_ monitor.Override  = (*logStatus)(nil)
)
