// SPDX-License-Identifier: MIT
//
// Copyright © 2023 Daniel Robertson.

//go:build linux
// +build linux

// A minimal utility to read a value from an HX711.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/endail/hx711"
	"github.com/warthog618/config"
	"github.com/warthog618/config/dict"
	"github.com/warthog618/config/keys"
	"github.com/warthog618/config/pflag"
	"github.com/warthog618/gpiod"
)

var version = "undefined"

func main() {
	cfg, flags := loadConfig()
	path := flags.Args()[0]
	if !strings.HasPrefix(path, "/dev/") {
		path = "/dev/" + path
	}
	clk := parseLineOffset(flags.Args()[1])
	dout := parseLineOffset(flags.Args()[2])
	gain := parseGain(cfg.MustGet("gain").String())
	rate := parseRate(cfg.MustGet("rate").String())

	c, err := gpiod.NewChip(path, gpiod.WithConsumer("hx711read"))
	if err != nil {
		die(err.Error())
	}
	defer c.Close()
	h, err := hx711.New(c, clk, dout, hx711.WithGain(gain))
	if err != nil {
		die("error requesting GPIO lines:" + err.Error())
	}
	defer h.Close()
	err = h.SetPower(hx711.PowerUp)
	if err != nil {
		die(err.Error())
	}
	defer h.SetPower(hx711.PowerDown)
	hx711.WaitSettle(rate)

	num := cfg.MustGet("num-samples").Int()
	if num < 1 {
		num = 1
	}
	for i := 0; i < num; i++ {
		v, ok, err := h.GetValueTimeout(2 * rate.Period())
		if err != nil {
			die("error reading sample:" + err.Error())
		}
		if !ok {
			die("timed out waiting for sample - check the chip is connected")
		}
		fmt.Println(v)
	}
}

func parseGain(arg string) hx711.Gain {
	switch arg {
	case "128":
		return hx711.Gain128
	case "64":
		return hx711.Gain64
	case "32":
		return hx711.Gain32
	}
	die(fmt.Sprintf("unknown gain '%s'", arg))
	return 0
}

func parseRate(arg string) hx711.Rate {
	switch arg {
	case "10":
		return hx711.Rate10
	case "80":
		return hx711.Rate80
	}
	die(fmt.Sprintf("unknown rate '%s'", arg))
	return 0
}

func parseLineOffset(arg string) int {
	o, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		die(fmt.Sprintf("can't parse offset '%s'", arg))
	}
	return int(o)
}

func loadConfig() (*config.Config, *pflag.Getter) {
	ff := []pflag.Flag{
		{Short: 'h', Name: "help", Options: pflag.IsBool},
		{Short: 'v', Name: "version", Options: pflag.IsBool},
		{Short: 'g', Name: "gain"},
		{Short: 'r', Name: "rate"},
		{Short: 'n', Name: "num-samples"},
	}
	defaults := dict.New(dict.WithMap(
		map[string]interface{}{
			"help":        false,
			"version":     false,
			"gain":        "128",
			"rate":        "10",
			"num-samples": 1,
		}))
	flags := pflag.New(pflag.WithFlags(ff),
		pflag.WithKeyReplacer(keys.NullReplacer()),
	)
	cfg := config.New(flags, config.WithDefault(defaults))
	if cfg.MustGet("help").Bool() {
		printHelp()
		os.Exit(0)
	}
	if cfg.MustGet("version").Bool() {
		printVersion()
		os.Exit(0)
	}
	switch flags.NArg() {
	case 0:
		die("gpiochip must be specified")
	case 1, 2:
		die("clock and data line offsets must be specified")
	}
	return cfg, flags
}

func die(reason string) {
	fmt.Fprintln(os.Stderr, "hx711read: "+reason)
	os.Exit(1)
}

func printHelp() {
	fmt.Printf("Usage: %s [OPTIONS] <gpiochip> <clk offset> <dout offset>\n", os.Args[0])
	fmt.Println("Read sample(s) from an HX711 load cell ADC.")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -h, --help:\t\tdisplay this message and exit")
	fmt.Println("  -v, --version:\tdisplay the version and exit")
	fmt.Println("  -g, --gain=GAIN:\tchannel/gain to read, one of 128, 64 or 32")
	fmt.Println("  -r, --rate=RATE:\tsample rate the chip is strapped for, 10 or 80")
	fmt.Println("  -n, --num-samples=NUM:\tnumber of samples to read")
}

func printVersion() {
	fmt.Printf("%s (hx711) %s\n", os.Args[0], version)
}
