// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

package watchdog

import (
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// Device is a kernel watchdog device, such as /dev/watchdog.
//
// The device resets the host on expiry, so the CoreMask has no effect.
// With TriggerPanic the device is given a pretimeout of half the timeout,
// which the kernel pretimeout governor handles, typically with a panic,
// before the reset. Drivers without pretimeout support, such as the
// bcm2835_wdt, are armed with the timeout alone.
type Device struct {
	path       string
	f          *os.File
	cfg        Config
	pretimeout int
	ioctl      ioctls
}

// ioctls are the watchdog device controls used by Device.
type ioctls struct {
	setTimeout    func(fd, secs int) error
	setPretimeout func(fd, secs int) error
	support       func(fd int) (uint32, error)
	keepalive     func(fd int) error
}

var kernelIoctls = ioctls{
	setTimeout: func(fd, secs int) error {
		return unix.IoctlSetPointerInt(fd, unix.WDIOC_SETTIMEOUT, secs)
	},
	setPretimeout: func(fd, secs int) error {
		return unix.IoctlSetPointerInt(fd, unix.WDIOC_SETPRETIMEOUT, secs)
	},
	support: func(fd int) (uint32, error) {
		info, err := unix.IoctlGetWatchdogInfo(fd)
		if err != nil {
			return 0, err
		}
		return info.Options, nil
	},
	keepalive: unix.IoctlWatchdogKeepalive,
}

// NewDevice creates a Device for the watchdog at path.
func NewDevice(path string) *Device {
	return &Device{path: path, ioctl: kernelIoctls}
}

// Configure opens, and so arms, the device then applies the timeout.
//
// If the timeout cannot be applied the device is disarmed.
// A pretimeout that cannot be applied leaves the device armed without one.
func (d *Device) Configure(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if d.f != nil {
		return ErrAlreadyConfigured
	}
	f, err := os.OpenFile(d.path, os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	fd := int(f.Fd())
	secs := timeoutSeconds(cfg.Timeout)
	if err = d.ioctl.setTimeout(fd, secs); err != nil {
		disarm(f)
		return err
	}
	d.f = f
	d.cfg = cfg
	d.pretimeout = 0
	if cfg.TriggerPanic {
		d.pretimeout = d.setPretimeout(fd, secs)
	}
	return nil
}

// setPretimeout applies a pretimeout of half the timeout, if the driver
// supports one, and returns the pretimeout applied, in seconds.
func (d *Device) setPretimeout(fd, secs int) int {
	pre := pretimeoutSeconds(secs)
	if pre == 0 {
		return 0
	}
	opts, err := d.ioctl.support(fd)
	if err != nil || opts&unix.WDIOF_PRETIMEOUT == 0 {
		return 0
	}
	if err = d.ioctl.setPretimeout(fd, pre); err != nil {
		return 0
	}
	return pre
}

// Pretimeout returns the pretimeout applied to the device, or zero if the
// device has none.
func (d *Device) Pretimeout() time.Duration {
	return time.Duration(d.pretimeout) * time.Second
}

// Feed sends a keepalive to the device.
func (d *Device) Feed() error {
	if d.f == nil {
		return ErrNotConfigured
	}
	return d.ioctl.keepalive(int(d.f.Fd()))
}

// Close disarms the device using the magic close.
func (d *Device) Close() error {
	if d.f == nil {
		return ErrNotConfigured
	}
	err := disarm(d.f)
	d.f = nil
	return err
}

// disarm writes the magic character before closing, which stops the
// watchdog on drivers not built with nowayout.
func disarm(f *os.File) error {
	_, err := f.Write([]byte("V"))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

// the device timeout has a resolution of seconds, so round up.
func timeoutSeconds(d time.Duration) int {
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

// the pretimeout must be at least a second and less than the timeout.
func pretimeoutSeconds(secs int) int {
	pre := secs / 2
	if pre < 1 {
		pre = 1
	}
	if pre >= secs {
		return 0
	}
	return pre
}
