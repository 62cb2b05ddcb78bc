// Package config loads benchmark tuning from YAML and validates run parameters.
package config

import (
	"errors"
	"fmt"
	"go_copy_bench/client/message"
	"go_copy_bench/client/strategy"
	"go_copy_bench/constants"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Bench holds every client side knob. Positional arguments fill Target and
// Run; the rest may come from a tuning file.
type Bench struct {
	Target struct {
		Address string `yaml:"address"`
		Port    int    `yaml:"port"`
	} `yaml:"target"`

	Run struct {
		PayloadSize int    `yaml:"payload-size"`
		Workers     int    `yaml:"workers"`
		Duration    int    `yaml:"duration"` // Seconds
		Strategy    string `yaml:"strategy"`
	} `yaml:"run"`

	Socket struct {
		DSCP        int           `yaml:"dscp"`
		MPTCP       bool          `yaml:"mptcp"`
		NoDelay     bool          `yaml:"no-delay"`
		DialTimeout time.Duration `yaml:"dial-timeout"`
	} `yaml:"socket"`

	ZeroCopy struct {
		DrainInterval     int           `yaml:"drain-interval"`
		FinalDrainTimeout time.Duration `yaml:"final-drain-timeout"`
		ExhaustedWait     time.Duration `yaml:"exhausted-wait"`
	} `yaml:"zerocopy"`
}

// Default returns the built in tuning
func Default() *Bench {
	b := new(Bench)
	b.Target.Port = constants.DEFAULT_PORT
	b.Run.Workers = constants.DEFAULT_NUM_WORKERS
	b.Run.Duration = constants.DEFAULT_DURATION
	b.Run.Strategy = constants.STRATEGY_TWO_COPY
	b.Socket.DSCP = constants.DEFAULT_DSCP
	b.Socket.DialTimeout = constants.DIAL_TIMEOUT
	b.ZeroCopy.DrainInterval = constants.DRAIN_INTERVAL
	b.ZeroCopy.FinalDrainTimeout = constants.FINAL_DRAIN_TIMEOUT
	b.ZeroCopy.ExhaustedWait = constants.EXHAUSTED_POLL_WAIT
	return b
}

// Load reads a YAML tuning file on top of the defaults
func Load(path string) (*Bench, error) {
	b := Default()
	if path == "" {
		return b, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, b); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	return b, nil
}

// Validate enforces the rules that abort the run before any connection.
func (b *Bench) Validate() error {
	if b.Target.Address == "" {
		return errors.New("target address must be set")
	}
	if b.Target.Port <= 0 || b.Target.Port > 65535 {
		return fmt.Errorf("invalid target port %d", b.Target.Port)
	}
	if _, err := message.FieldSize(b.Run.PayloadSize); err != nil {
		return err
	}
	if b.Run.Workers < 1 {
		return fmt.Errorf("worker count must be at least 1, got %d", b.Run.Workers)
	}
	if b.Run.Duration < 1 {
		return fmt.Errorf("duration must be at least 1 second, got %d", b.Run.Duration)
	}
	if !strategy.Valid(b.Run.Strategy) {
		return fmt.Errorf("%w: %q", strategy.ErrUnknownStrategy, b.Run.Strategy)
	}
	if b.ZeroCopy.DrainInterval < 1 {
		return fmt.Errorf("drain interval must be at least 1, got %d", b.ZeroCopy.DrainInterval)
	}
	return nil
}
