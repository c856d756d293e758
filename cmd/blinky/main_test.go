// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/warthog618/blinky/watchdog"
)

func TestNewWatchdog(t *testing.T) {
	assert.IsType(t, &watchdog.Task{}, newWatchdog(""))
	assert.IsType(t, &watchdog.Device{}, newWatchdog("/dev/watchdog"))
}

func TestRootArgs(t *testing.T) {
	assert.NotNil(t, rootCmd.Args(rootCmd, []string{"8"}))
	assert.Nil(t, rootCmd.Args(rootCmd, nil))
}

func TestDetectRegistered(t *testing.T) {
	cmd, _, err := rootCmd.Find([]string{"detect"})
	assert.Nil(t, err)
	assert.Equal(t, detectCmd, cmd)
}
