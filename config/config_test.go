package config

import (
	"errors"
	"go_copy_bench/client/message"
	"go_copy_bench/client/strategy"
	"go_copy_bench/constants"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	b, err := Load("")
	if err != nil {
		t.Fatalf("Expected defaults, got %v", err)
	}
	if b.Target.Port != constants.DEFAULT_PORT || b.Run.Strategy != constants.STRATEGY_TWO_COPY {
		t.Errorf("Unexpected defaults %+v", b)
	}
	if b.ZeroCopy.DrainInterval != constants.DRAIN_INTERVAL {
		t.Errorf("Expected drain interval %d, got %d", constants.DRAIN_INTERVAL, b.ZeroCopy.DrainInterval)
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bench.yaml")
	content := `
target:
  address: 10.0.0.2
run:
  payload-size: 65536
  strategy: zero_copy
socket:
  no-delay: true
  dial-timeout: 2s
zerocopy:
  drain-interval: 32
  final-drain-timeout: 500ms
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	b, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if b.Target.Address != "10.0.0.2" || b.Run.PayloadSize != 65536 || b.Run.Strategy != "zero_copy" {
		t.Errorf("Unexpected run section %+v", b.Run)
	}
	if !b.Socket.NoDelay || b.Socket.DialTimeout != 2*time.Second {
		t.Errorf("Unexpected socket section %+v", b.Socket)
	}
	if b.ZeroCopy.DrainInterval != 32 || b.ZeroCopy.FinalDrainTimeout != 500*time.Millisecond {
		t.Errorf("Unexpected zerocopy section %+v", b.ZeroCopy)
	}
	// Untouched keys keep their defaults.
	if b.Target.Port != constants.DEFAULT_PORT || b.Run.Workers != constants.DEFAULT_NUM_WORKERS {
		t.Errorf("Expected defaults to survive partial file, got port %d workers %d", b.Target.Port, b.Run.Workers)
	}
	if err := b.Validate(); err != nil {
		t.Errorf("Expected valid config, got %v", err)
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Errorf("Expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Bench {
		b := Default()
		b.Target.Address = "127.0.0.1"
		b.Run.PayloadSize = 1024
		return b
	}
	if err := valid().Validate(); err != nil {
		t.Fatalf("Expected valid config, got %v", err)
	}

	b := valid()
	b.Run.Strategy = "mmap"
	if err := b.Validate(); !errors.Is(err, strategy.ErrUnknownStrategy) {
		t.Errorf("Expected ErrUnknownStrategy, got %v", err)
	}

	b = valid()
	b.Run.PayloadSize = 7
	if err := b.Validate(); !errors.Is(err, message.ErrInvalidPayload) {
		t.Errorf("Expected ErrInvalidPayload, got %v", err)
	}

	cases := map[string]func(*Bench){
		"no address":     func(b *Bench) { b.Target.Address = "" },
		"bad port":       func(b *Bench) { b.Target.Port = 70000 },
		"no workers":     func(b *Bench) { b.Run.Workers = 0 },
		"no duration":    func(b *Bench) { b.Run.Duration = 0 },
		"strategy":       func(b *Bench) { b.Run.Strategy = "mmap" },
		"drain interval": func(b *Bench) { b.ZeroCopy.DrainInterval = 0 },
	}
	for name, mutate := range cases {
		b := valid()
		mutate(b)
		if err := b.Validate(); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}
