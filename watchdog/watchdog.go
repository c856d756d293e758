// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

// Package watchdog provides watchdogs that abort or reset the process if it
// is not periodically fed.
//
// Two implementations are provided: Task, an in-process watchdog monitoring
// the thread that configured it, and Device, which arms a kernel watchdog
// device such as /dev/watchdog.
package watchdog

import (
	"errors"
	"fmt"
	"time"
)

// Config defines the watchdog policy.
type Config struct {
	// Timeout is the period without a Feed after which the watchdog expires.
	Timeout time.Duration

	// CoreMask selects the CPU cores that are monitored.
	// Bit n corresponds to core n.
	CoreMask uint32

	// TriggerPanic selects a fatal fault on expiry, rather than a silent reset.
	TriggerPanic bool
}

// Validate checks the config is usable.
func (c Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", ErrInvalidConfig)
	}
	if c.CoreMask == 0 {
		return fmt.Errorf("%w: core mask must select at least one core", ErrInvalidConfig)
	}
	return nil
}

// Watchdog is the capability to arm and service a watchdog.
type Watchdog interface {
	// Configure arms the watchdog with the given policy.
	// A watchdog can only be configured once.
	Configure(Config) error

	// Feed restarts the timeout countdown.
	Feed() error

	// Close disarms the watchdog.
	Close() error
}

// Nop is a Watchdog that does nothing.
//
// It stands in for a watchdog that could not be armed.
type Nop struct{}

// Configure is a nop.
func (Nop) Configure(Config) error { return nil }

// Feed is a nop.
func (Nop) Feed() error { return nil }

// Close is a nop.
func (Nop) Close() error { return nil }

var (
	// ErrInvalidConfig indicates the Config cannot be applied.
	ErrInvalidConfig = errors.New("invalid watchdog config")

	// ErrAlreadyConfigured indicates the watchdog has already been configured.
	ErrAlreadyConfigured = errors.New("watchdog already configured")

	// ErrNotConfigured indicates the watchdog has not been configured.
	ErrNotConfigured = errors.New("watchdog not configured")

	// ErrClosed indicates the watchdog has been closed.
	ErrClosed = errors.New("watchdog closed")
)
