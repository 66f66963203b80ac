package core

import (
	"time"

	"pkt.systems/pslog"
)

// SessionDeps captures optional dependencies for an editing session.
type SessionDeps struct {
	Media    MediaResolver
	Recorder Recorder
	Sink     EventSink
	Logger   pslog.Logger
	// Now overrides the time source; nil means time.Now. Tests use it to
	// drive the transport clock deterministically.
	Now func() time.Time
}
