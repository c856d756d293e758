// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

// Package gpio drives the Raspberry Pi GPIO registers through /dev/gpiomem.
//
// Only what is needed to bind a pin as an output is provided: the function
// select (mode), the set and clear registers, and the pull up/down control
// used to park a released pin.
//
// Pins are identified by BCM GPIO number.
//
// See the datasheet for full details of the BCM2835 controller:
// http://www.raspberrypi.org/wp-content/uploads/2012/02/BCM2835-ARM-Peripherals.pdf
package gpio

import (
	"time"
)

// Pin is a single GPIO pin.
type Pin struct {
	pin         int
	fsel        int
	modeShift   uint
	clearReg    int
	setReg      int
	clkReg      int
	pullReg2711 int
	pullShift   uint
	mask        uint32
}

// Level is the high (true) or low (false) level of a Pin.
type Level bool

// Mode is the function selected for a Pin.
type Mode int

// Pull is the pull up/down state of a Pin.
type Pull int

const (
	memLength = 4096

	modeMask uint32 = 7 // pin mode is 3 bits wide
	pullMask uint32 = 3 // pull mode is 2 bits wide
	// BCM2835 pullReg is the same for all pins.
	pullReg2835 = 37

	// MaxGPIOPin is one more than the highest GPIO on the 40 pin header.
	MaxGPIOPin = 28
)

// Function select values. Anything other than Input or Output is an
// alternate function.
const (
	Input Mode = iota
	Output
	Alt5
	Alt4
	Alt0
	Alt1
	Alt2
	Alt3
)

// Levels.
const (
	Low  Level = false
	High Level = true
)

// Pull values match the bcm pull field.
const (
	PullNone Pull = iota
	PullDown
	PullUp
)

// NewPin returns the Pin for the BCM GPIO number.
func NewPin(pin int) (*Pin, error) {
	if !isOpen() {
		return nil, ErrClosed
	}
	if pin < 0 || pin >= MaxGPIOPin {
		return nil, ErrInvalidPin
	}
	// every header pin is in bank 0.
	return &Pin{
		pin:         pin,
		fsel:        pin / 10,
		modeShift:   uint(pin%10) * 3,
		setReg:      7,
		clearReg:    10,
		clkReg:      38,
		pullReg2711: 57 + pin/16,
		pullShift:   uint(pin&0x0f) << 1,
		mask:        uint32(1) << uint(pin),
	}, nil
}

// Pin returns the BCM GPIO number.
func (pin *Pin) Pin() int {
	return pin.pin
}

// Mode returns the function currently selected for the pin.
//
// A closed block reads as Input.
func (pin *Pin) Mode() Mode {
	if !isOpen() {
		return Input
	}
	return Mode(mem[pin.fsel] >> pin.modeShift & modeMask)
}

// SetMode selects the pin function.
func (pin *Pin) SetMode(mode Mode) error {
	memlock.Lock()
	defer memlock.Unlock()
	if !isOpen() {
		return ErrClosed
	}
	mem[pin.fsel] = mem[pin.fsel]&^(modeMask<<pin.modeShift) | uint32(mode)<<pin.modeShift
	return nil
}

// Input selects the pin as an input.
func (pin *Pin) Input() error {
	return pin.SetMode(Input)
}

// Output selects the pin as an output.
func (pin *Pin) Output() error {
	return pin.SetMode(Output)
}

// Write drives the pin level.
//
// The level only reaches the line once the pin is an Output, so it may be
// written beforehand to set the initial level.
func (pin *Pin) Write(level Level) error {
	if !isOpen() {
		return ErrClosed
	}
	if level == Low {
		mem[pin.clearReg] = pin.mask
	} else {
		mem[pin.setReg] = pin.mask
	}
	return nil
}

// SetPull sets the pull up/down of the pin.
// The pull cannot be read back from hardware.
func (pin *Pin) SetPull(pull Pull) error {
	if chipset == BCM2711 {
		return pin.setPull2711(pull)
	}
	return pin.setPull2835(pull)
}

// PullDown pulls the pin down.
func (pin *Pin) PullDown() error {
	return pin.SetPull(PullDown)
}

func (pin *Pin) setPull2835(pull Pull) error {
	memlock.Lock()
	defer memlock.Unlock()
	if !isOpen() {
		return ErrClosed
	}
	mem[pullReg2835] = mem[pullReg2835]&^pullMask | uint32(pull)
	// the control needs 150 cycles to set up, and as long again to clock in.
	time.Sleep(time.Microsecond)
	mem[pin.clkReg] = pin.mask
	time.Sleep(time.Microsecond)
	mem[pullReg2835] &^= pullMask
	mem[pin.clkReg] = 0
	return nil
}

func (pin *Pin) setPull2711(pull Pull) error {
	// 2711 reverses up/down sense
	switch pull {
	case PullUp:
		pull = PullDown
	case PullDown:
		pull = PullUp
	}
	memlock.Lock()
	defer memlock.Unlock()
	if !isOpen() {
		return ErrClosed
	}
	mem[pin.pullReg2711] = mem[pin.pullReg2711]&^(pullMask<<pin.pullShift) | uint32(pull)<<pin.pullShift
	return nil
}
