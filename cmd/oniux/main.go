// Copyright 2026 The oniux Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/oniux-project/oniux/isolation"
	"github.com/oniux-project/oniux/lib/config"
	"github.com/oniux-project/oniux/lib/process"
	"github.com/oniux-project/oniux/lib/version"
)

func main() {
	role, err := isolation.CurrentRole()
	if err != nil {
		process.Fatal(err)
	}

	// Re-executed children skip the CLI entirely: their state arrives
	// in the setup payload, not on the command line.
	if role != isolation.RoleOriginal {
		os.Exit(isolation.RunRole(role))
	}

	code, err := run(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "oniux: %v\n", err)
	}
	os.Exit(code)
}

func run(args []string) (int, error) {
	flags := pflag.NewFlagSet("oniux", pflag.ContinueOnError)
	// Everything after the command name belongs to the command.
	flags.SetInterspersed(false)

	delegatePath := flags.String("delegate-path", "", "path to the network delegate binary")
	configPath := flags.String("config", "", "path to a YAML config file (default: $ONIUX_CONFIG)")
	debug := flags.Bool("debug", false, "enable debug logging (also: ONIUX_DEBUG)")
	showVersion := flags.Bool("version", false, "print version and exit")
	flags.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0, nil
		}
		return isolation.ExitUsage, nil // pflag already printed the error
	}

	if *showVersion {
		fmt.Printf("oniux %s\n", version.Info())
		return 0, nil
	}

	command := flags.Args()
	if len(command) == 0 {
		flags.Usage()
		return isolation.ExitUsage, fmt.Errorf("no command given")
	}

	if os.Getenv("ONIUX_DEBUG") != "" {
		*debug = true
	}
	logger := isolation.NewLogger(*debug)

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return isolation.ExitUsage, err
	}

	explicit := *delegatePath
	if explicit == "" {
		explicit = cfg.DelegatePath
	}
	delegate, err := isolation.DiscoverDelegate(explicit)
	if err != nil {
		return isolation.CodeOf(err), err
	}
	logger.Debug("resolved network delegate", "path", delegate)

	supervisor := &isolation.Supervisor{
		Payload: &isolation.Payload{
			Command:      command,
			DelegatePath: delegate,
			DelegateArgs: cfg.DelegateArgs,
			Device:       cfg.Device,
			Addresses:    cfg.Addresses,
			Nameservers:  cfg.Nameservers,
			ReadyTimeout: cfg.ReadyTimeout.Std(),
			PollInterval: cfg.PollInterval.Std(),
			Debug:        *debug,
		},
		Logger: logger,
	}

	code, err := supervisor.Run()
	if err != nil {
		return isolation.CodeOf(err), err
	}
	return code, nil
}

const usage = `oniux - run a command with its traffic isolated onto Tor

USAGE
    oniux [flags] COMMAND [ARGS...]

The target command runs with a private network namespace whose only
interface is the delegate's TUN device, and a private /etc/resolv.conf
naming the delegate's resolver. Its exit status becomes oniux's own;
setup failures use a reserved range starting at 96.

EXAMPLES
    oniux curl https://check.torproject.org/api/ip
    oniux --delegate-path ./onionmasq -- bash

ENVIRONMENT
    ONIUX_CONFIG    Path to the YAML config file
    ONIUX_DELEGATE  Path to the network delegate binary
    ONIUX_DEBUG     Enable debug logging

FLAGS
`
