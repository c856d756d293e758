// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

//go:build !linux
// +build !linux

package watchdog

// setAffinity is a nop where thread affinity is unsupported.
func setAffinity(mask uint32) error {
	return nil
}
