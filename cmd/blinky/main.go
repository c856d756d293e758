// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/warthog618/blinky"
	"github.com/warthog618/blinky/board"
	"github.com/warthog618/blinky/watchdog"
)

var version = "undefined"

var rootCmd = &cobra.Command{
	Use:   "blinky",
	Short: "blinky blinks an LED on a GPIO pin under the supervision of a watchdog",
	Long: `Blinks an LED on a GPIO pin, high for 500ms then low for 800ms, forever.

The watchdog is fed while the LED is held, so if the loop stalls the
watchdog expires and the process panics, or is reset.

Configuration is via the environment (BLINKY_*) or a JSON config file,
blinky.json by default, or as set by BLINKY_CONFIG_FILE.`,
	Args:         cobra.NoArgs,
	RunE:         run,
	SilenceUsage: true,
	Version:      version,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := blinky.LoadConfig()
	if err != nil {
		return err
	}
	plat, err := blinky.InitPlatform(cfg)
	if err != nil {
		return err
	}
	defer plat.Close()
	log := plat.Log

	backend, err := board.NewBackend(cfg.Backend, cfg.Chip)
	if err != nil {
		log.Fatalw("Failed to select GPIO backend", "backend", cfg.Backend, "available", board.Backends(), "error", err)
	}
	dev, err := blinky.BringUp(plat, cfg, backend, newWatchdog(cfg.WatchdogDevice))
	if err != nil {
		log.Fatalw("Failed to bring up LED", "pin", cfg.Pin, "backend", cfg.Backend, "error", err)
	}
	// capture exit signals to ensure pin is reverted to input on exit.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer func() {
		if err := dev.Close(); err != nil {
			log.Warnw("Failed to release device", "error", err)
		}
	}()
	if err = dev.Greet(ctx, cfg.GreetingCount, cfg.GreetingOn, cfg.GreetingOff); err == nil {
		err = dev.Run(ctx)
	}
	if errors.Is(err, context.Canceled) {
		log.Info("Stopped")
		return nil
	}
	return err
}

func newWatchdog(device string) watchdog.Watchdog {
	if device == "" {
		return watchdog.NewTask()
	}
	return watchdog.NewDevice(device)
}
