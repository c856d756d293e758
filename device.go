// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

package blinky

import (
	"errors"
	"fmt"

	"github.com/warthog618/blinky/board"
	"github.com/warthog618/blinky/watchdog"
	"go.uber.org/zap"
)

// ConfigureWatchdog arms the watchdog.
//
// A watchdog that cannot be armed is not fatal. The failure is logged as a
// warning and a watchdog.Nop is returned in its place, so the device
// continues without one.
func ConfigureWatchdog(log *zap.SugaredLogger, wd watchdog.Watchdog, cfg watchdog.Config) watchdog.Watchdog {
	if err := wd.Configure(cfg); err != nil {
		log.Warnw("Failed to initialize watchdog timer", "error", err)
		return watchdog.Nop{}
	}
	log.Debugw("watchdog armed",
		"timeout", cfg.Timeout,
		"coreMask", fmt.Sprintf("0x%x", cfg.CoreMask),
		"triggerPanic", cfg.TriggerPanic)
	return wd
}

// AcquireOutputPin binds the pin as an output, consuming the peripherals.
func AcquireOutputPin(p *board.Peripherals, pin int, options ...board.OutputOption) (*board.Pin, error) {
	return p.Output(pin, options...)
}

// Device is a brought up device, ready to run the blink loop.
type Device struct {
	*Controller
	peripherals *board.Peripherals
	pin         *board.Pin
	wd          watchdog.Watchdog
}

// BringUp arms the watchdog, takes the peripherals from the backend, and
// binds the configured pin as the output of a Controller.
//
// An error indicates the device cannot operate and is fatal. The watchdog is
// disarmed before returning the error.
func BringUp(plat *Platform, cfg Config, backend board.Backend, wd watchdog.Watchdog) (*Device, error) {
	log := plat.Log
	wd = ConfigureWatchdog(log, wd, cfg.Watchdog)
	p, err := board.Take(backend)
	if err != nil {
		wd.Close()
		return nil, fmt.Errorf("can't take peripherals: %w", err)
	}
	if id, ok := backend.(board.Identifier); ok {
		log.Infow("GPIO controller", "controller", id.Controller())
	}
	var options []board.OutputOption
	if cfg.ActiveLow {
		options = append(options, board.WithActiveLow())
	}
	pin, err := AcquireOutputPin(p, cfg.Pin, options...)
	if err != nil {
		p.Close()
		wd.Close()
		return nil, err
	}
	ctrl := NewController(pin, wd, log,
		WithPeriods(cfg.HighPeriod, cfg.LowPeriod),
		WithFeedInterval(cfg.Watchdog.Timeout/4))
	return &Device{
		Controller:  ctrl,
		peripherals: p,
		pin:         pin,
		wd:          wd,
	}, nil
}

// Close releases the pin, then the peripherals, and disarms the watchdog.
func (d *Device) Close() error {
	return errors.Join(
		d.pin.Release(),
		d.peripherals.Close(),
		d.wd.Close())
}

var (
	// ErrConfig indicates the config is invalid.
	ErrConfig = errors.New("invalid config")

	// ErrPlatformUp indicates the platform has already been brought up.
	ErrPlatformUp = errors.New("platform already initialised")
)
