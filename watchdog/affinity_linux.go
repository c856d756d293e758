// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

package watchdog

import (
	"golang.org/x/sys/unix"
)

// setAffinity restricts the calling thread to the cores in the mask.
func setAffinity(mask uint32) error {
	var set unix.CPUSet
	for core := 0; core < 32; core++ {
		if mask&(1<<uint(core)) != 0 {
			set.Set(core)
		}
	}
	return unix.SchedSetaffinity(0, &set)
}
