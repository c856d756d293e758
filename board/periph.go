// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

package board

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

func init() {
	Register("periph", func(string) Backend { return NewPeriph() })
}

// Periph is a Backend using the periph.io host drivers, which select the
// best available access method for the host.
type Periph struct{}

// NewPeriph creates a Periph backend.
func NewPeriph() *Periph {
	return &Periph{}
}

// Open loads the periph.io host drivers.
func (p *Periph) Open() error {
	_, err := host.Init()
	return err
}

// Close is a nop as the host drivers remain loaded for the life of the process.
func (p *Periph) Close() error {
	return nil
}

// Request binds the pin as an output.
func (p *Periph) Request(pin int, initial bool) (Line, error) {
	pio := gpioreg.ByName(fmt.Sprintf("GPIO%d", pin))
	if pio == nil {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPin, pin)
	}
	if err := pio.Out(gpio.Level(initial)); err != nil {
		return nil, err
	}
	return periphLine{pio}, nil
}

type periphLine struct {
	pio gpio.PinIO
}

func (l periphLine) Set(v bool) error {
	return l.pio.Out(gpio.Level(v))
}

func (l periphLine) Release() error {
	return l.pio.In(gpio.PullDown, gpio.NoEdge)
}
