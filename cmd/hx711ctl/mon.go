// SPDX-License-Identifier: MIT
//
// Copyright © 2023 Daniel Robertson.

//go:build linux
// +build linux

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/endail/hx711"
	"github.com/spf13/cobra"
)

func init() {
	monCmd.Flags().StringVarP(&monOpts.Gain, "gain", "g", "128", "channel/gain to read, one of 128, 64 or 32")
	monCmd.Flags().StringVarP(&monOpts.Rate, "rate", "r", "10", "sample rate the chip is strapped for, 10 or 80")
	monCmd.Flags().UintVarP(&monOpts.NumSamples, "num-samples", "n", 0, "exit after n samples")
	monCmd.Flags().BoolVarP(&monOpts.Quiet, "quiet", "q", false, "don't display sample timestamps")
	rootCmd.AddCommand(monCmd)
}

var (
	monCmd = &cobra.Command{
		Use:                   "mon [flags] <chip> <clk> <dout>",
		Short:                 "Monitor samples from the ADC",
		Long:                  `Stream samples from the HX711 to standard output until interrupted.`,
		Args:                  cobra.ExactArgs(3),
		RunE:                  mon,
		DisableFlagsInUseLine: true,
	}
	monOpts = struct {
		Gain       string
		Rate       string
		NumSamples uint
		Quiet      bool
	}{}
)

func mon(cmd *cobra.Command, args []string) error {
	c, h, err := newHX711(args, monOpts.Gain, monOpts.Rate)
	if err != nil {
		logErr(cmd, err)
		return nil
	}
	defer c.Close()
	defer h.Close()
	defer h.SetPower(hx711.PowerDown)
	sigdone := make(chan os.Signal, 1)
	signal.Notify(sigdone, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigdone)
	timeout := sampleTimeout(monOpts.Rate)
	count := uint(0)
	for {
		select {
		case <-sigdone:
			return nil
		default:
		}
		v, ok, err := h.GetValueTimeout(timeout)
		if err != nil {
			logErr(cmd, err)
			return nil
		}
		if !ok {
			continue
		}
		if monOpts.Quiet {
			fmt.Println(v)
		} else {
			fmt.Printf("%8d %s\n", v, time.Now().Format(time.RFC3339Nano))
		}
		count++
		if monOpts.NumSamples > 0 && count >= monOpts.NumSamples {
			return nil
		}
	}
}
