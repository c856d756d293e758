// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

// Package board provides exclusive access to the GPIO peripherals of the
// host, and binds pins from them as outputs.
//
// The peripherals are represented by a singleton token, which can only be
// taken once until it is closed. Binding a pin consumes the token, so at
// most one output handle exists for the life of the token:
//
//	p, err := board.Take(board.NewMem())
//	if err != nil {
//		panic(err)
//	}
//	defer p.Close()
//	led, err := p.Output(8, board.WithActiveLow())
//
// The hardware access itself is provided by a Backend, of which there are
// several, selected by name via NewBackend.
package board

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
)

// Level is the logical level of an output.
type Level bool

const (
	// Low is the inactive level.
	Low Level = false
	// High is the active level.
	High Level = true
)

func (l Level) String() string {
	if l {
		return "high"
	}
	return "low"
}

// Line is the backend view of a requested output line.
//
// Values are electrical, any active low inversion is applied before the Line.
type Line interface {
	// Set drives the line to the electrical level.
	Set(v bool) error
	// Release returns the line to a safe input state and gives up the request.
	Release() error
}

// Backend provides access to the GPIO hardware.
type Backend interface {
	// Open brings up the hardware access.
	Open() error
	// Request binds a pin as an output, driven to the initial electrical level.
	Request(pin int, initial bool) (Line, error)
	// Close shuts down the hardware access.
	Close() error
}

// Identifier is implemented by backends that can identify the GPIO
// controller once opened.
type Identifier interface {
	Controller() string
}

// taken is set while a Peripherals token is live.
var taken int32

// Peripherals is the token providing exclusive access to the GPIO hardware.
type Peripherals struct {
	mu       sync.Mutex
	backend  Backend
	consumed bool
	closed   bool
}

// Take claims the peripherals, opening the backend.
//
// Returns ErrAlreadyTaken if the peripherals have already been taken and not
// yet closed.
func Take(b Backend) (*Peripherals, error) {
	if !atomic.CompareAndSwapInt32(&taken, 0, 1) {
		return nil, ErrAlreadyTaken
	}
	if err := b.Open(); err != nil {
		atomic.StoreInt32(&taken, 0)
		return nil, err
	}
	return &Peripherals{backend: b}, nil
}

// Output binds the pin as an output, initially at the Low logical level.
//
// This consumes the Peripherals, and any subsequent call returns ErrConsumed.
func (p *Peripherals) Output(pin int, options ...OutputOption) (*Pin, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrClosed
	}
	if p.consumed {
		return nil, ErrConsumed
	}
	p.consumed = true
	cfg := outputConfig{}
	for _, option := range options {
		option(&cfg)
	}
	pp := &Pin{pin: pin, activeLow: cfg.activeLow, level: cfg.initial}
	line, err := p.backend.Request(pin, pp.electrical(cfg.initial))
	if err != nil {
		return nil, fmt.Errorf("can't bind pin %d as output: %w", pin, err)
	}
	pp.line = line
	return pp, nil
}

// Close shuts down the backend and returns the token so the peripherals may
// be taken again.
//
// Any Pin bound from the Peripherals should be released first.
func (p *Peripherals) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	p.closed = true
	err := p.backend.Close()
	atomic.StoreInt32(&taken, 0)
	return err
}

// OutputOption modifies how a pin is bound as an output.
type OutputOption func(*outputConfig)

type outputConfig struct {
	activeLow bool
	initial   Level
}

// WithActiveLow inverts the electrical level of the pin, so High drives the
// line low. For LEDs wired to sink current.
func WithActiveLow() OutputOption {
	return func(c *outputConfig) {
		c.activeLow = true
	}
}

// WithInitial sets the logical level the pin is driven to when bound.
func WithInitial(l Level) OutputOption {
	return func(c *outputConfig) {
		c.initial = l
	}
}

// Pin is an output bound from the Peripherals.
type Pin struct {
	line      Line
	pin       int
	activeLow bool
	// the last level successfully written.
	level Level
}

// Pin returns the pin number of the output.
func (p *Pin) Pin() int {
	return p.pin
}

// Level returns the logical level last successfully written to the output.
func (p *Pin) Level() Level {
	return p.level
}

// Write sets the logical level of the output.
func (p *Pin) Write(l Level) error {
	if p.line == nil {
		return ErrReleased
	}
	if err := p.line.Set(p.electrical(l)); err != nil {
		return err
	}
	p.level = l
	return nil
}

// High sets the output High.
func (p *Pin) High() error {
	return p.Write(High)
}

// Low sets the output Low.
func (p *Pin) Low() error {
	return p.Write(Low)
}

// Release returns the pin to an input and gives up the binding.
func (p *Pin) Release() error {
	if p.line == nil {
		return ErrReleased
	}
	err := p.line.Release()
	p.line = nil
	return err
}

func (p *Pin) electrical(l Level) bool {
	return bool(l) != p.activeLow
}

var (
	backendsMu sync.Mutex
	backends   = map[string]func(chip string) Backend{}
)

// Register makes a backend available by name to NewBackend.
func Register(name string, newBackend func(chip string) Backend) {
	backendsMu.Lock()
	defer backendsMu.Unlock()
	if _, dup := backends[name]; dup {
		panic("board: Register called twice for backend " + name)
	}
	backends[name] = newBackend
}

// NewBackend creates the named backend.
//
// The chip identifies the GPIO chip for backends that support more than one.
func NewBackend(name, chip string) (Backend, error) {
	backendsMu.Lock()
	newBackend, ok := backends[name]
	backendsMu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrUnknownBackend, name)
	}
	return newBackend(chip), nil
}

// Backends returns the names of the registered backends.
func Backends() []string {
	backendsMu.Lock()
	defer backendsMu.Unlock()
	nn := make([]string, 0, len(backends))
	for n := range backends {
		nn = append(nn, n)
	}
	sort.Strings(nn)
	return nn
}

var (
	// ErrAlreadyTaken indicates the peripherals have already been taken.
	ErrAlreadyTaken = errors.New("peripherals already taken")

	// ErrConsumed indicates the peripherals have already been used to bind an output.
	ErrConsumed = errors.New("peripherals already consumed")

	// ErrClosed indicates the peripherals have been closed.
	ErrClosed = errors.New("peripherals closed")

	// ErrReleased indicates the pin has been released.
	ErrReleased = errors.New("pin released")

	// ErrInvalidPin indicates the pin is not provided by the backend.
	ErrInvalidPin = errors.New("invalid pin")

	// ErrBusy indicates the pin is already in use.
	ErrBusy = errors.New("pin busy")

	// ErrReserved indicates the pin is assigned to another function and
	// cannot be used as an output.
	ErrReserved = errors.New("pin reserved for another function")

	// ErrUnknownBackend indicates no backend is registered with the name.
	ErrUnknownBackend = errors.New("unknown backend")
)
