package cmd

import (
	"context"
	"errors"
	"flag"
	"testing"
)

type testConfig struct {
	Address string `env:"PORTAL_CMD_TEST_ADDRESS" envDefault:"127.0.0.1:8090"`
	Storage string `env:"PORTAL_CMD_TEST_STORAGE" envDefault:"sqlite"`
}

func TestParseConfigReadsEnvAndFlags(t *testing.T) {
	t.Setenv("PORTAL_CMD_TEST_ADDRESS", "env:9000")
	t.Setenv("PORTAL_CMD_TEST_STORAGE", "memory")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg := testConfig{}
	if err := ParseConfig(&cfg); err != nil {
		t.Fatalf("load config defaults: %v", err)
	}
	fs.StringVar(&cfg.Address, "http-addr", cfg.Address, "address")
	fs.StringVar(&cfg.Storage, "storage", cfg.Storage, "storage")

	if err := ParseArgs(fs, []string{"-http-addr", "flag:9001"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	if cfg.Address != "flag:9001" {
		t.Fatalf("expected flag value for address, got %q", cfg.Address)
	}
	if cfg.Storage != "memory" {
		t.Fatalf("expected env storage, got %q", cfg.Storage)
	}
}

func TestParseConfigFromArgsReadsEnvAndFlags(t *testing.T) {
	t.Setenv("PORTAL_CMD_TEST_ADDRESS", "configarg:9000")
	t.Setenv("PORTAL_CMD_TEST_STORAGE", "memory")

	cfg := testConfig{}
	fs := flag.NewFlagSet("configargs", flag.ContinueOnError)
	fs.StringVar(&cfg.Address, "http-addr", "", "address")
	fs.StringVar(&cfg.Storage, "storage", "", "storage")
	if err := ParseConfigFromArgs(&cfg, fs, []string{"-http-addr", "flag:9002"}); err != nil {
		t.Fatalf("parse config and args: %v", err)
	}
	if cfg.Address != "flag:9002" {
		t.Fatalf("expected parsed flag address, got %q", cfg.Address)
	}
	if cfg.Storage != "memory" {
		t.Fatalf("expected env storage, got %q", cfg.Storage)
	}
}

func TestParseConfigRejectsNilTarget(t *testing.T) {
	if err := ParseConfig[testConfig](nil); err == nil {
		t.Fatal("expected nil target error")
	}
}

func TestParseArgsRejectsNilParser(t *testing.T) {
	if err := ParseArgs(nil, []string{}); err == nil {
		t.Fatal("expected parse args to reject nil parser")
	}
}

func TestRunWithTelemetryRunsFunction(t *testing.T) {
	t.Setenv("PORTAL_OTEL_ENDPOINT", "")
	called := false
	err := RunWithTelemetry(context.Background(), ServicePortal, func(context.Context) error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !called {
		t.Fatal("expected run function to be called")
	}
}

func TestRunWithTelemetryReturnsRunError(t *testing.T) {
	t.Setenv("PORTAL_OTEL_ENDPOINT", "")
	boom := errors.New("boom")
	err := RunWithTelemetry(context.Background(), ServicePortal, func(context.Context) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected run error, got %v", err)
	}
}

func TestRunWithTelemetryValidatesInputs(t *testing.T) {
	if err := RunWithTelemetry(context.Background(), " ", func(context.Context) error { return nil }); err == nil {
		t.Fatal("expected missing service error")
	}
	if err := RunWithTelemetry(context.Background(), ServicePortal, nil); err == nil {
		t.Fatal("expected missing run function error")
	}
}
