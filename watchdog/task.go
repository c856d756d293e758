// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

package watchdog

import (
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"
)

// ResetExitCode is the exit status of a process reset by an expired Task
// watchdog that is not configured to panic.
// The process supervisor is expected to restart the process.
const ResetExitCode = 3

// Task is an in-process watchdog.
//
// Configure locks the calling goroutine to its OS thread and restricts that
// thread to the cores in the CoreMask, so the goroutine that configures the
// watchdog is the one that must keep feeding it.
type Task struct {
	mu          sync.Mutex
	cfg         Config
	timer       *time.Timer
	state       taskState
	onExpiry    func(Config)
	setAffinity func(mask uint32) error
}

type taskState int

const (
	taskIdle taskState = iota
	taskArmed
	taskClosed
)

// TaskOption modifies the behaviour of a Task.
type TaskOption func(*Task)

// WithExpiryHandler replaces the action taken when the watchdog expires.
func WithExpiryHandler(h func(Config)) TaskOption {
	return func(t *Task) {
		t.onExpiry = h
	}
}

// NewTask creates a Task watchdog.
func NewTask(options ...TaskOption) *Task {
	t := &Task{
		onExpiry:    expire,
		setAffinity: setAffinity,
	}
	for _, option := range options {
		option(t)
	}
	return t
}

// Configure arms the watchdog.
func (t *Task) Configure(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if n := runtime.NumCPU(); n < 32 && cfg.CoreMask>>uint(n) != 0 {
		return fmt.Errorf("%w: core mask 0x%x exceeds %d cores", ErrInvalidConfig, cfg.CoreMask, n)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	switch t.state {
	case taskArmed:
		return ErrAlreadyConfigured
	case taskClosed:
		return ErrClosed
	}
	runtime.LockOSThread()
	if err := t.setAffinity(cfg.CoreMask); err != nil {
		runtime.UnlockOSThread()
		return err
	}
	t.cfg = cfg
	t.state = taskArmed
	t.timer = time.AfterFunc(cfg.Timeout, t.expired)
	return nil
}

// Feed restarts the timeout countdown.
func (t *Task) Feed() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch t.state {
	case taskIdle:
		return ErrNotConfigured
	case taskClosed:
		return ErrClosed
	}
	t.timer.Reset(t.cfg.Timeout)
	return nil
}

// Close disarms the watchdog.
func (t *Task) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == taskClosed {
		return ErrClosed
	}
	if t.timer != nil {
		t.timer.Stop()
	}
	t.state = taskClosed
	return nil
}

func (t *Task) expired() {
	t.mu.Lock()
	armed := t.state == taskArmed
	cfg := t.cfg
	t.mu.Unlock()
	if armed {
		t.onExpiry(cfg)
	}
}

func expire(cfg Config) {
	if cfg.TriggerPanic {
		panic(fmt.Sprintf("watchdog: task not fed within %v", cfg.Timeout))
	}
	os.Exit(ResetExitCode)
}
