// SPDX-License-Identifier: MIT
//
// Copyright © 2023 Daniel Robertson.

//go:build linux
// +build linux

// A utility to read samples from an HX711 load cell ADC wired to GPIO
// lines.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/endail/hx711"
	"github.com/spf13/cobra"
	"github.com/warthog618/gpiod"
)

var rootCmd = &cobra.Command{
	Use:   "hx711ctl",
	Short: "hx711ctl is a utility to read an HX711 load cell ADC",
	Long:  "hx711ctl is a utility to read samples from an HX711 load cell ADC wired to Linux GPIO character device lines",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func logErr(cmd *cobra.Command, err error) {
	fmt.Fprintf(os.Stderr, "hx711ctl %s: %s\n", cmd.Name(), err)
}

func parseOffset(arg string) (int, error) {
	o, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("can't parse offset '%s'", arg)
	}
	return int(o), nil
}

func parseGain(arg string) (hx711.Gain, error) {
	switch arg {
	case "128":
		return hx711.Gain128, nil
	case "64":
		return hx711.Gain64, nil
	case "32":
		return hx711.Gain32, nil
	}
	return 0, fmt.Errorf("unknown gain '%s' - must be one of 128, 64 or 32", arg)
}

func parseRate(arg string) (hx711.Rate, error) {
	switch arg {
	case "10":
		return hx711.Rate10, nil
	case "80":
		return hx711.Rate80, nil
	}
	return 0, fmt.Errorf("unknown rate '%s' - must be 10 or 80", arg)
}

// newHX711 opens the chip and powers up a settled driver per the
// common chip/clk/dout args and gain/rate flags.
func newHX711(args []string, gain, rate string) (*gpiod.Chip, *hx711.HX711, error) {
	path := args[0]
	if !strings.HasPrefix(path, "/dev/") {
		path = "/dev/" + path
	}
	clk, err := parseOffset(args[1])
	if err != nil {
		return nil, nil, err
	}
	dout, err := parseOffset(args[2])
	if err != nil {
		return nil, nil, err
	}
	g, err := parseGain(gain)
	if err != nil {
		return nil, nil, err
	}
	r, err := parseRate(rate)
	if err != nil {
		return nil, nil, err
	}
	c, err := gpiod.NewChip(path, gpiod.WithConsumer("hx711ctl"))
	if err != nil {
		return nil, nil, err
	}
	h, err := hx711.New(c, clk, dout, hx711.WithGain(g))
	if err != nil {
		c.Close()
		return nil, nil, err
	}
	if err = h.SetPower(hx711.PowerUp); err != nil {
		h.Close()
		c.Close()
		return nil, nil, err
	}
	hx711.WaitSettle(r)
	return c, h, nil
}

// timeout generous enough for the slowest rate to produce a sample.
func sampleTimeout(rate string) time.Duration {
	r, err := parseRate(rate)
	if err != nil {
		r = hx711.Rate10
	}
	return 2 * r.Period()
}
