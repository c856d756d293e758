// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

package blinky

import (
	"log"
	"testing"

	"github.com/edaniels/golog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitPlatform(t *testing.T) {
	plat, logs := newPlatform(t)
	assert.Equal(t, "all", plat.Traceback())

	// standard library log is redirected
	log.Print("from the stdlib")
	assert.Equal(t, 1, logs.FilterMessage("from the stdlib").Len())

	p2, err := InitPlatform(testConfig())
	assert.ErrorIs(t, err, ErrPlatformUp)
	assert.Nil(t, p2)
}

func TestInitPlatformNoPanic(t *testing.T) {
	cfg := testConfig()
	cfg.Watchdog.TriggerPanic = false
	plat, err := InitPlatform(cfg, WithLogger(golog.NewTestLogger(t)))
	require.Nil(t, err)
	assert.Equal(t, "", plat.Traceback())
	require.Nil(t, plat.Close())

	// can be brought up again once closed
	plat, err = InitPlatform(cfg)
	require.Nil(t, err)
	assert.NotNil(t, plat.Log)
	plat.Close()
}
