// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

package blinky

import (
	"fmt"
	"time"

	"github.com/warthog618/blinky/watchdog"
	"github.com/warthog618/config"
	"github.com/warthog618/config/blob"
	"github.com/warthog618/config/blob/decoder/json"
	"github.com/warthog618/config/dict"
	"github.com/warthog618/config/env"
)

// Config is the configuration of the device.
type Config struct {
	// Pin is the BCM GPIO number of the output.
	Pin int

	// Backend names the board.Backend providing the GPIO access.
	Backend string

	// Chip is the GPIO chip used by the cdev backend.
	Chip string

	// ActiveLow inverts the electrical level of the output.
	ActiveLow bool

	// HighPeriod is the time the output is held High each cycle.
	HighPeriod time.Duration

	// LowPeriod is the time the output is held Low each cycle.
	LowPeriod time.Duration

	// GreetingCount is the number of quick blinks before the blink loop starts.
	GreetingCount int

	// GreetingOn is the time a greeting blink is held High.
	GreetingOn time.Duration

	// GreetingOff is the time a greeting blink is held Low.
	GreetingOff time.Duration

	// WatchdogDevice is the path of a kernel watchdog device.
	// If empty the in-process task watchdog is used.
	WatchdogDevice string

	// Watchdog is the watchdog policy.
	Watchdog watchdog.Config
}

// EnvPrefix is the prefix of environment variables that override the config.
const EnvPrefix = "BLINKY_"

var defaultConfig = map[string]interface{}{
	"pin":       8,
	"backend":   "gpiomem",
	"chip":      "gpiochip0",
	"activelow": false,
	"period": map[string]interface{}{
		"high": "500ms",
		"low":  "800ms",
	},
	"greeting": map[string]interface{}{
		"count": 0,
		"on":    "100ms",
		"off":   "100ms",
	},
	"watchdog": map[string]interface{}{
		"device":   "",
		"timeout":  "10s",
		"coremask": 1,
		"panic":    true,
	},
}

// LoadConfig loads the config from the environment and from an optional
// JSON config file, over the defaults.
//
// The config file defaults to blinky.json, which is optional, and may be
// changed with the BLINKY_CONFIG_FILE environment variable, in which case the
// file must exist.
func LoadConfig() (c Config, err error) {
	// an explicit config file that cannot be loaded, and WithMust on missing
	// or malformed fields, both panic.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrConfig, r)
		}
	}()
	def := dict.New(dict.WithMap(defaultConfig))
	// highest priority sources first - environment overrides the config file
	cfg := config.New(
		env.New(env.WithEnvPrefix(EnvPrefix)),
		config.WithDefault(def))
	cfg.Append(
		blob.NewConfigFile(cfg, "config.file", "blinky.json", json.NewDecoder()))
	cfg = cfg.GetConfig("", config.WithMust)
	c = Config{
		Pin:            int(cfg.MustGet("pin").Int()),
		Backend:        cfg.MustGet("backend").String(),
		Chip:           cfg.MustGet("chip").String(),
		ActiveLow:      cfg.MustGet("activelow").Bool(),
		HighPeriod:     cfg.MustGet("period.high").Duration(),
		LowPeriod:      cfg.MustGet("period.low").Duration(),
		GreetingCount:  int(cfg.MustGet("greeting.count").Int()),
		GreetingOn:     cfg.MustGet("greeting.on").Duration(),
		GreetingOff:    cfg.MustGet("greeting.off").Duration(),
		WatchdogDevice: cfg.MustGet("watchdog.device").String(),
		Watchdog: watchdog.Config{
			Timeout:      cfg.MustGet("watchdog.timeout").Duration(),
			CoreMask:     uint32(cfg.MustGet("watchdog.coremask").Uint()),
			TriggerPanic: cfg.MustGet("watchdog.panic").Bool(),
		},
	}
	return c, c.Validate()
}

// Validate checks the config is usable.
func (c Config) Validate() error {
	if c.Pin < 0 {
		return fmt.Errorf("%w: pin %d", ErrConfig, c.Pin)
	}
	if c.HighPeriod <= 0 || c.LowPeriod <= 0 {
		return fmt.Errorf("%w: periods must be positive", ErrConfig)
	}
	if c.GreetingCount < 0 {
		return fmt.Errorf("%w: greeting count %d", ErrConfig, c.GreetingCount)
	}
	if c.GreetingCount > 0 && (c.GreetingOn <= 0 || c.GreetingOff <= 0) {
		return fmt.Errorf("%w: greeting periods must be positive", ErrConfig)
	}
	return nil
}
