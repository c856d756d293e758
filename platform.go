// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

package blinky

import (
	"runtime/debug"
	"sync/atomic"

	"github.com/edaniels/golog"
	"go.uber.org/zap"
)

// Platform is the runtime environment brought up by InitPlatform.
type Platform struct {
	// Log is the default logging sink.
	Log *zap.SugaredLogger

	restoreLog func()
	traceback  string
}

// PlatformOption modifies how the platform is brought up.
type PlatformOption func(*Platform)

// WithLogger replaces the default logging sink.
func WithLogger(log *zap.SugaredLogger) PlatformOption {
	return func(p *Platform) {
		p.Log = log
	}
}

var platformUp int32

// InitPlatform brings up the runtime environment.
//
// It installs the default logging sink, into which the standard library log
// is redirected, and, if the watchdog is to panic on expiry, raises the
// traceback level so the panic reports all goroutines.
//
// It must be called once, before any peripheral access.
func InitPlatform(cfg Config, options ...PlatformOption) (*Platform, error) {
	if !atomic.CompareAndSwapInt32(&platformUp, 0, 1) {
		return nil, ErrPlatformUp
	}
	p := &Platform{}
	for _, option := range options {
		option(p)
	}
	if p.Log == nil {
		p.Log = golog.NewDevelopmentLogger("blinky")
	}
	p.restoreLog = zap.RedirectStdLog(p.Log.Desugar())
	if cfg.Watchdog.TriggerPanic {
		p.traceback = "all"
		debug.SetTraceback(p.traceback)
	}
	return p, nil
}

// Traceback returns the traceback level set by InitPlatform, or empty if it
// was left at the default.
func (p *Platform) Traceback() string {
	return p.traceback
}

// Close restores the standard library log and flushes the log.
//
// After Close the platform may be brought up again.
func (p *Platform) Close() error {
	p.restoreLog()
	p.Log.Sync()
	atomic.StoreInt32(&platformUp, 0)
	return nil
}
