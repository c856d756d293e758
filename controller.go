// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

// Package blinky blinks an LED on a GPIO pin, under the supervision of a
// watchdog.
//
// The device is brought up in a fixed sequence - InitPlatform,
// ConfigureWatchdog, AcquireOutputPin - after which the Controller toggles
// the pin High and Low indefinitely:
//
//	plat, err := blinky.InitPlatform(cfg)
//	...
//	dev, err := blinky.BringUp(plat, cfg, backend, watchdog.NewTask())
//	if err != nil {
//		plat.Log.Fatalw("bring up failed", "error", err)
//	}
//	defer dev.Close()
//	dev.Run(ctx)
//
// Every delay in the loop feeds the watchdog, so a stalled loop causes the
// watchdog to expire.
package blinky

import (
	"context"
	"time"

	"github.com/warthog618/blinky/board"
	"github.com/warthog618/blinky/watchdog"
	"go.uber.org/zap"
)

// OutputPin is the output driven by the Controller.
type OutputPin interface {
	Pin() int
	Write(board.Level) error
}

// Controller drives the blink loop.
type Controller struct {
	pin          OutputPin
	wd           watchdog.Watchdog
	log          *zap.SugaredLogger
	highPeriod   time.Duration
	lowPeriod    time.Duration
	feedInterval time.Duration
	after        func(time.Duration) <-chan time.Time
}

// ControllerOption modifies the behaviour of a Controller.
type ControllerOption func(*Controller)

// WithPeriods sets the time the output is held High and Low each cycle.
func WithPeriods(high, low time.Duration) ControllerOption {
	return func(c *Controller) {
		c.highPeriod = high
		c.lowPeriod = low
	}
}

// WithFeedInterval sets the longest time a delay waits between feeding the
// watchdog. Zero only feeds at the start and end of each delay.
func WithFeedInterval(d time.Duration) ControllerOption {
	return func(c *Controller) {
		c.feedInterval = d
	}
}

// Default periods of the blink cycle.
const (
	DefaultHighPeriod = 500 * time.Millisecond
	DefaultLowPeriod  = 800 * time.Millisecond
)

// NewController creates a Controller driving the pin.
//
// The Controller has exclusive use of the pin and the watchdog.
func NewController(pin OutputPin, wd watchdog.Watchdog, log *zap.SugaredLogger, options ...ControllerOption) *Controller {
	c := &Controller{
		pin:        pin,
		wd:         wd,
		log:        log,
		highPeriod: DefaultHighPeriod,
		lowPeriod:  DefaultLowPeriod,
		after:      time.After,
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// Run runs the blink loop.
//
// The loop starts by setting the pin High and does not return until the ctx
// is done, returning the ctx error.
// Failures to set the pin are logged and do not interrupt the loop.
func (c *Controller) Run(ctx context.Context) error {
	c.log.Infow("Flashing LED", "pin", c.pin.Pin())
	for {
		c.set(board.High)
		if err := c.Delay(ctx, c.highPeriod); err != nil {
			return err
		}
		c.set(board.Low)
		c.log.Info("Hello, world!")
		if err := c.Delay(ctx, c.lowPeriod); err != nil {
			return err
		}
	}
}

// Greet quickly blinks the pin count times, holding High for on and Low for
// off.
func (c *Controller) Greet(ctx context.Context, count int, on, off time.Duration) error {
	c.log.Debugw("greeting", "count", count, "on", on, "off", off)
	for i := 0; i < count; i++ {
		c.set(board.High)
		if err := c.Delay(ctx, on); err != nil {
			return err
		}
		c.set(board.Low)
		if err := c.Delay(ctx, off); err != nil {
			return err
		}
	}
	return nil
}

// Delay blocks for d or until the ctx is done.
//
// The watchdog is fed on entry, at least every feed interval, and on
// completion.
func (c *Controller) Delay(ctx context.Context, d time.Duration) error {
	c.feed()
	for d > 0 {
		step := d
		if c.feedInterval > 0 && step > c.feedInterval {
			step = c.feedInterval
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.after(step):
		}
		d -= step
		c.feed()
	}
	return nil
}

func (c *Controller) set(l board.Level) {
	if err := c.pin.Write(l); err != nil {
		c.log.Errorw("Failed to set LED", "pin", c.pin.Pin(), "level", l.String(), "error", err)
	}
}

func (c *Controller) feed() {
	if err := c.wd.Feed(); err != nil {
		c.log.Warnw("Failed to feed watchdog", "error", err)
	}
}
