// Copyright 2026 The oniux Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"net"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvVar names the environment variable that points at the config
// file. The --config flag takes precedence over it.
const EnvVar = "ONIUX_CONFIG"

// Config holds the run parameters for oniux. Everything has a working
// default; a config file only overrides.
type Config struct {
	// DelegatePath is the network delegate binary. Empty means
	// discover per the documented search order.
	DelegatePath string `yaml:"delegate_path"`

	// DelegateArgs are extra arguments passed to the delegate after
	// the device name.
	DelegateArgs []string `yaml:"delegate_args"`

	// Device is the name of the TUN interface the delegate creates.
	Device string `yaml:"device"`

	// Addresses are the CIDR addresses assigned to the device inside
	// the isolation namespace.
	Addresses []string `yaml:"addresses"`

	// Nameservers are the resolver endpoints written to the private
	// resolv.conf. They must be addresses the delegate serves DNS on.
	Nameservers []string `yaml:"nameservers"`

	// ReadyTimeout bounds the wait for the delegate's device.
	ReadyTimeout Duration `yaml:"ready_timeout"`

	// PollInterval is the cadence of the device existence check.
	PollInterval Duration `yaml:"poll_interval"`
}

// Default returns the built-in configuration: the onion0 device with
// the delegate's well-known link-local addresses and resolvers.
func Default() *Config {
	return &Config{
		Device:       "onion0",
		Addresses:    []string{"169.254.42.1/24", "fe80::1/96"},
		Nameservers:  []string{"169.254.42.53", "fe80::53"},
		ReadyTimeout: Duration(10 * time.Second),
		PollInterval: Duration(100 * time.Millisecond),
	}
}

// Load returns the configuration from the file named by ONIUX_CONFIG,
// or the defaults when the variable is unset. There is no search path
// and no home-directory discovery: configuration is deterministic.
func Load() (*Config, error) {
	path := os.Getenv(EnvVar)
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile loads the configuration file at path, applied on top of the
// defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the semantic constraints a file cannot express.
func (c *Config) Validate() error {
	if c.Device == "" {
		return fmt.Errorf("device must not be empty")
	}
	if len(c.Device) >= 16 {
		return fmt.Errorf("device name %q exceeds IFNAMSIZ", c.Device)
	}
	if len(c.Addresses) == 0 {
		return fmt.Errorf("at least one interface address is required")
	}
	for _, addr := range c.Addresses {
		if _, _, err := net.ParseCIDR(addr); err != nil {
			return fmt.Errorf("address %q: %w", addr, err)
		}
	}
	if len(c.Nameservers) == 0 {
		return fmt.Errorf("at least one nameserver is required")
	}
	for _, ns := range c.Nameservers {
		if net.ParseIP(ns) == nil {
			return fmt.Errorf("nameserver %q is not an IP address", ns)
		}
	}
	if c.ReadyTimeout <= 0 {
		return fmt.Errorf("ready_timeout must be positive")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive")
	}
	return nil
}

// Duration is a time.Duration that unmarshals from YAML strings like
// "10s" or "500ms".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }
