// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

package gpio

import (
	"bytes"
	"os"
)

// Chipset identifies the GPIO controller.
type Chipset int

const (
	// BCM2835 covers the GPIO controller of the Pi 0-3, which all share the
	// BCM2835 register layout.
	BCM2835 Chipset = iota
	// BCM2711 is the Pi 4 GPIO controller, which has a different pull register layout.
	BCM2711
)

var chipset Chipset

// CompatiblePath is the device tree node identifying the SoC.
var CompatiblePath = "/proc/device-tree/compatible"

// Chip returns the GPIO controller detected when the GPIO memory was opened.
func Chip() Chipset {
	return chipset
}

func (c Chipset) String() string {
	switch c {
	case BCM2711:
		return "bcm2711"
	case BCM2835:
		return "bcm2835"
	}
	return "unknown"
}

// detectChip identifies the GPIO controller from the device tree.
// Anything not positively identified as a BCM2711 is treated as a BCM2835.
func detectChip() Chipset {
	compat, err := os.ReadFile(CompatiblePath)
	if err != nil {
		return BCM2835
	}
	return parseCompatible(compat)
}

// compatible is a list of NUL terminated strings.
func parseCompatible(compat []byte) Chipset {
	for _, c := range bytes.Split(compat, []byte{0}) {
		if bytes.Equal(c, []byte("brcm,bcm2711")) {
			return BCM2711
		}
	}
	return BCM2835
}
