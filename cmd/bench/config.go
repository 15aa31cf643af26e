package main

import (
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"
)

const (
	defaultN   = 10
	defaultCPU = false
)

// config defines the configuration options for bench.
type config struct {
	N   uint `short:"n" description:"number of proofs to submit and verify is 2^n"`
	CPU bool `short:"c" description:"whether to enable CPU profiling"`
}

// loadConfig initializes and parses the config using command line options.
func loadConfig() (*config, error) {
	cfg := config{
		N:   defaultN,
		CPU: defaultCPU,
	}

	if _, err := flags.Parse(&cfg); err != nil {
		if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
		} else {
			_, _ = fmt.Fprintln(os.Stderr, err)
		}
		return nil, err
	}
	if cfg.N > 24 {
		_, _ = fmt.Fprintln(os.Stderr, "n must be at most 24")
		return nil, fmt.Errorf("n too large: %d", cfg.N)
	}

	return &cfg, nil
}
