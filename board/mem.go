// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

package board

import (
	"errors"
	"fmt"

	"github.com/warthog618/blinky/gpio"
)

func init() {
	Register("gpiomem", func(string) Backend { return NewMem() })
}

// Mem is a Backend driving the GPIO registers directly via /dev/gpiomem.
type Mem struct{}

// NewMem creates a Mem backend.
func NewMem() *Mem {
	return &Mem{}
}

// Open maps the GPIO registers.
func (m *Mem) Open() error {
	return gpio.Open()
}

// Close unmaps the GPIO registers.
func (m *Mem) Close() error {
	return gpio.Close()
}

// Controller returns the detected chipset, bcm2835 or bcm2711.
func (m *Mem) Controller() string {
	return gpio.Chip().String()
}

// Request binds the pin as an output.
//
// Pins that are currently assigned to an alternate function, such as SPI
// or UART, are considered reserved and are not rebound.
func (m *Mem) Request(pin int, initial bool) (Line, error) {
	p, err := gpio.NewPin(pin)
	if errors.Is(err, gpio.ErrInvalidPin) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPin, pin)
	}
	if err != nil {
		return nil, err
	}
	if mode := p.Mode(); mode != gpio.Input && mode != gpio.Output {
		return nil, fmt.Errorf("%w: pin %d in mode %d", ErrReserved, pin, mode)
	}
	// set the level before switching to output to avoid glitching the line.
	if err = p.Write(gpio.Level(initial)); err != nil {
		return nil, err
	}
	if err = p.Output(); err != nil {
		return nil, err
	}
	return memLine{p}, nil
}

type memLine struct {
	pin *gpio.Pin
}

func (l memLine) Set(v bool) error {
	return l.pin.Write(gpio.Level(v))
}

// Release leaves the pin as an input, pulled down so it does not float.
func (l memLine) Release() error {
	if err := l.pin.Input(); err != nil {
		return err
	}
	return l.pin.PullDown()
}
