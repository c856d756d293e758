// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

package watchdog

import (
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTask(expired chan<- Config) (*Task, *[]uint32) {
	masks := []uint32{}
	t := NewTask(WithExpiryHandler(func(cfg Config) { expired <- cfg }))
	t.setAffinity = func(mask uint32) error {
		masks = append(masks, mask)
		return nil
	}
	return t, &masks
}

func TestConfigValidate(t *testing.T) {
	patterns := []struct {
		name string
		cfg  Config
		err  error
	}{
		{"ok", Config{Timeout: time.Second, CoreMask: 1}, nil},
		{"zero timeout", Config{CoreMask: 1}, ErrInvalidConfig},
		{"negative timeout", Config{Timeout: -time.Second, CoreMask: 1}, ErrInvalidConfig},
		{"no cores", Config{Timeout: time.Second}, ErrInvalidConfig},
	}
	for _, p := range patterns {
		tf := func(t *testing.T) {
			err := p.cfg.Validate()
			if p.err == nil {
				assert.Nil(t, err)
			} else {
				assert.ErrorIs(t, err, p.err)
			}
		}
		t.Run(p.name, tf)
	}
}

func TestTaskExpiry(t *testing.T) {
	expired := make(chan Config, 1)
	wd, masks := newTestTask(expired)
	defer wd.Close()
	cfg := Config{Timeout: 20 * time.Millisecond, CoreMask: 1, TriggerPanic: true}
	require.Nil(t, wd.Configure(cfg))
	assert.Equal(t, []uint32{1}, *masks)
	select {
	case c := <-expired:
		assert.Equal(t, cfg, c)
	case <-time.After(time.Second):
		t.Fatal("watchdog didn't expire")
	}
}

func TestTaskFeed(t *testing.T) {
	expired := make(chan Config, 1)
	wd, _ := newTestTask(expired)
	defer wd.Close()
	require.Nil(t, wd.Configure(Config{Timeout: 200 * time.Millisecond, CoreMask: 1}))
	for i := 0; i < 40; i++ {
		time.Sleep(10 * time.Millisecond)
		require.Nil(t, wd.Feed())
	}
	select {
	case <-expired:
		t.Fatal("fed watchdog expired")
	default:
	}
}

func TestTaskClose(t *testing.T) {
	expired := make(chan Config, 1)
	wd, _ := newTestTask(expired)
	require.Nil(t, wd.Configure(Config{Timeout: 20 * time.Millisecond, CoreMask: 1}))
	require.Nil(t, wd.Close())
	select {
	case <-expired:
		t.Fatal("closed watchdog expired")
	case <-time.After(60 * time.Millisecond):
	}
	assert.ErrorIs(t, wd.Feed(), ErrClosed)
	assert.ErrorIs(t, wd.Close(), ErrClosed)
	assert.ErrorIs(t, wd.Configure(Config{Timeout: time.Second, CoreMask: 1}), ErrClosed)
}

func TestTaskNotConfigured(t *testing.T) {
	wd, _ := newTestTask(make(chan Config, 1))
	assert.ErrorIs(t, wd.Feed(), ErrNotConfigured)
}

func TestTaskReconfigure(t *testing.T) {
	wd, _ := newTestTask(make(chan Config, 1))
	defer wd.Close()
	cfg := Config{Timeout: time.Second, CoreMask: 1}
	require.Nil(t, wd.Configure(cfg))
	assert.ErrorIs(t, wd.Configure(cfg), ErrAlreadyConfigured)
}

func TestTaskInvalidConfig(t *testing.T) {
	wd, masks := newTestTask(make(chan Config, 1))
	assert.ErrorIs(t, wd.Configure(Config{CoreMask: 1}), ErrInvalidConfig)
	assert.Empty(t, *masks)
	if runtime.NumCPU() < 31 {
		err := wd.Configure(Config{Timeout: time.Second, CoreMask: 1 << 31})
		assert.ErrorIs(t, err, ErrInvalidConfig)
	}
	assert.ErrorIs(t, wd.Feed(), ErrNotConfigured)
}

func TestTaskAffinityError(t *testing.T) {
	wd, _ := newTestTask(make(chan Config, 1))
	defer wd.Close()
	aerr := errors.New("invalid argument")
	wd.setAffinity = func(uint32) error { return aerr }
	cfg := Config{Timeout: time.Second, CoreMask: 1}
	assert.ErrorIs(t, wd.Configure(cfg), aerr)
	assert.ErrorIs(t, wd.Feed(), ErrNotConfigured)
	wd.setAffinity = func(uint32) error { return nil }
	assert.Nil(t, wd.Configure(cfg))
}

func TestExpirePanics(t *testing.T) {
	assert.PanicsWithValue(t, "watchdog: task not fed within 10s", func() {
		expire(Config{Timeout: 10 * time.Second, CoreMask: 1, TriggerPanic: true})
	})
}

func TestNop(t *testing.T) {
	var wd Watchdog = Nop{}
	assert.Nil(t, wd.Configure(Config{}))
	assert.Nil(t, wd.Feed())
	assert.Nil(t, wd.Close())
}
