// SPDX-License-Identifier: MIT
//
// Copyright © 2023 Daniel Robertson.

//go:build linux
// +build linux

package main

import (
	"errors"
	"fmt"

	"github.com/endail/hx711"
	"github.com/spf13/cobra"
)

func init() {
	readCmd.Flags().StringVarP(&readOpts.Gain, "gain", "g", "128", "channel/gain to read, one of 128, 64 or 32")
	readCmd.Flags().StringVarP(&readOpts.Rate, "rate", "r", "10", "sample rate the chip is strapped for, 10 or 80")
	readCmd.Flags().UintVarP(&readOpts.NumSamples, "num-samples", "n", 1, "number of samples to read")
	readCmd.SetHelpTemplate(readCmd.HelpTemplate() + extendedReadHelp)
	rootCmd.AddCommand(readCmd)
}

var extendedReadHelp = `
Gains:
  128:          channel A, gain 128 (default)
  64:           channel A, gain 64
  32:           channel B, gain 32

The rate does not configure the chip - it is strapped by the RATE pin -
but it sets how long to wait for readings to settle after power up.
`

var (
	readCmd = &cobra.Command{
		Use:                   "read [flags] <chip> <clk> <dout>",
		Short:                 "Read samples from the ADC",
		Long:                  `Power up the HX711 on the given clock and data line offsets, wait for readings to settle, and print samples to standard output.`,
		Args:                  cobra.ExactArgs(3),
		RunE:                  read,
		DisableFlagsInUseLine: true,
	}
	readOpts = struct {
		Gain       string
		Rate       string
		NumSamples uint
	}{}
)

func read(cmd *cobra.Command, args []string) error {
	c, h, err := newHX711(args, readOpts.Gain, readOpts.Rate)
	if err != nil {
		logErr(cmd, err)
		return nil
	}
	defer c.Close()
	defer h.Close()
	defer h.SetPower(hx711.PowerDown)
	timeout := sampleTimeout(readOpts.Rate)
	for i := uint(0); i < readOpts.NumSamples; i++ {
		v, ok, err := h.GetValueTimeout(timeout)
		if err != nil {
			logErr(cmd, err)
			return nil
		}
		if !ok {
			logErr(cmd, errors.New("timed out waiting for sample - check the chip is connected"))
			return nil
		}
		fmt.Println(v)
	}
	return nil
}
