package solver

import (
	"github.com/kr/pretty"
	"github.com/sirupsen/logrus"
)

// nopLogger is used when a Solver is built without an explicit logger,
// so call sites never have to nil-check s.log.
var nopLogger = func() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(logrusDiscard{})
	return l
}()

type logrusDiscard struct{}

func (logrusDiscard) Write(p []byte) (int, error) { return len(p), nil }

// SetLogger attaches l to the solver; the teacher's Verbose stats line
// becomes structured fields logged at debug level instead of raw
// fmt.Printf, so a caller can silence it, route it, or assert on it.
func (s *Solver) SetLogger(l *logrus.Logger) {
	if l == nil {
		l = nopLogger
	}
	s.log = l
}

func (s *Solver) logRestart() {
	s.log.WithFields(logrus.Fields{
		"restarts":  s.Stats.NbRestarts,
		"conflicts": s.Stats.NbConflicts,
		"learned":   len(s.learned),
		"deleted":   s.Stats.NbDeleted,
		"units":     s.Stats.NbUnitLearned,
		"vars":      s.nbVars,
	}).Debug("solver restart")
}

// debugState dumps the solver's trail with
// kr/pretty, the same tool and the same "print internal state for
// debugging" role it plays in the wider corpus. Only ever called when
// the logger is at debug level, so it stays off the hot path.
func (s *Solver) debugState(tag string) {
	if !s.log.IsLevelEnabled(logrus.DebugLevel) {
		return
	}
	s.log.WithField("tag", tag).Debugf("trail=%s", pretty.Sprint(s.trail))
}
