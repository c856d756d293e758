// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

package board

import (
	"errors"
	"fmt"

	"github.com/warthog618/gpiod"
	"golang.org/x/sys/unix"
)

func init() {
	Register("cdev", func(chip string) Backend { return NewCdev(chip) })
}

// Consumer is the label applied to lines requested via the GPIO character device.
var Consumer = "blinky"

// Cdev is a Backend using the GPIO character device, e.g. /dev/gpiochip0.
//
// Unlike Mem, the kernel arbitrates access to lines, so lines held by other
// processes or by kernel drivers are reported as busy.
type Cdev struct {
	name string
	chip *gpiod.Chip
}

// NewCdev creates a Cdev backend for the named chip.
func NewCdev(name string) *Cdev {
	if name == "" {
		name = "gpiochip0"
	}
	return &Cdev{name: name}
}

// Controller returns the label of the open chip, else its name.
func (c *Cdev) Controller() string {
	if c.chip == nil {
		return c.name
	}
	return c.chip.Label
}

// Open opens the GPIO chip.
func (c *Cdev) Open() error {
	chip, err := gpiod.NewChip(c.name, gpiod.WithConsumer(Consumer))
	if err != nil {
		return err
	}
	c.chip = chip
	return nil
}

// Close closes the GPIO chip.
func (c *Cdev) Close() error {
	if c.chip == nil {
		return ErrClosed
	}
	err := c.chip.Close()
	c.chip = nil
	return err
}

// Request binds the pin as an output.
func (c *Cdev) Request(pin int, initial bool) (Line, error) {
	if c.chip == nil {
		return nil, ErrClosed
	}
	if pin < 0 || pin >= c.chip.Lines() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPin, pin)
	}
	l, err := c.chip.RequestLine(pin, gpiod.AsOutput(btoi(initial)))
	if errors.Is(err, unix.EBUSY) {
		return nil, fmt.Errorf("%w: %v", ErrBusy, err)
	}
	if err != nil {
		return nil, err
	}
	return cdevLine{l}, nil
}

type cdevLine struct {
	l *gpiod.Line
}

func (l cdevLine) Set(v bool) error {
	return l.l.SetValue(btoi(v))
}

func (l cdevLine) Release() error {
	err := l.l.Reconfigure(gpiod.AsInput)
	if cerr := l.l.Close(); err == nil {
		err = cerr
	}
	return err
}

func btoi(v bool) int {
	if v {
		return 1
	}
	return 0
}
