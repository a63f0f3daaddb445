// Package config loads bpfjit settings from a TOML file and the environment.
package config

import (
	"fmt"
	"io"
	"log"
	"runtime"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/xyproto/env/v2"

	"bpfjit/pkg/jit"
	"bpfjit/pkg/ppc64"
)

// Environment variables that override the file.
const (
	EnvEnable   = "BPFJIT_ENABLE"
	EnvTarget   = "BPFJIT_TARGET"
	EnvVerbose  = "BPFJIT_VERBOSE"
	EnvCacheDir = "BPFJIT_CACHE_DIR"
	EnvJobs     = "BPFJIT_JOBS"
	EnvTOC      = "BPFJIT_TOC"
)

type JITConfig struct {
	Enabled bool   `toml:"enabled"`
	Target  string `toml:"target"`
	Verbose int    `toml:"verbose"`
	Jobs    int    `toml:"jobs"`
	// TOC accepts any integer syntax strconv understands, hex included.
	TOC string `toml:"toc"`
}

type CacheConfig struct {
	// Dir is the pebble directory; empty disables the cache.
	Dir string `toml:"dir"`
}

type RunConfig struct {
	MaxSteps int    `toml:"max_steps"`
	CPU      uint32 `toml:"cpu"`
}

// Config is the whole configuration file.
type Config struct {
	JIT   JITConfig   `toml:"jit"`
	Cache CacheConfig `toml:"cache"`
	Run   RunConfig   `toml:"run"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		JIT: JITConfig{
			Enabled: true,
			Target:  ppc64.LittleEndian.Name,
			Jobs:    runtime.NumCPU(),
			TOC:     "0",
		},
		Run: RunConfig{MaxSteps: 10_000_000},
	}
}

// Load reads path over the defaults. Keys the file sets but Config does not know are an
// error, which catches misspelled settings.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return cfg, cfg.Validate()
}

// FromEnv applies the BPFJIT_* variables to cfg. The environment is re-read on every call.
func (cfg Config) FromEnv() (Config, error) {
	env.Load()
	if env.Has(EnvEnable) {
		cfg.JIT.Enabled = env.Bool(EnvEnable)
	}
	cfg.JIT.Target = env.Str(EnvTarget, cfg.JIT.Target)
	cfg.JIT.Verbose = env.Int(EnvVerbose, cfg.JIT.Verbose)
	cfg.JIT.Jobs = env.Int(EnvJobs, cfg.JIT.Jobs)
	cfg.JIT.TOC = env.Str(EnvTOC, cfg.JIT.TOC)
	cfg.Cache.Dir = env.Str(EnvCacheDir, cfg.Cache.Dir)
	return cfg, cfg.Validate()
}

// Validate checks the values that Options would otherwise reject later.
func (cfg Config) Validate() error {
	if _, err := ppc64.ParseTarget(cfg.JIT.Target); err != nil {
		return err
	}
	if _, err := cfg.toc(); err != nil {
		return err
	}
	if cfg.JIT.Verbose < 0 {
		return fmt.Errorf("jit.verbose must not be negative, have %d", cfg.JIT.Verbose)
	}
	if cfg.JIT.Jobs < 0 {
		return fmt.Errorf("jit.jobs must not be negative, have %d", cfg.JIT.Jobs)
	}
	return nil
}

func (cfg Config) toc() (uint64, error) {
	s := strings.TrimSpace(cfg.JIT.TOC)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("jit.toc: bad value %q", cfg.JIT.TOC)
	}
	return v, nil
}

// Options converts the configuration into compiler options logging to logger.
func (cfg Config) Options(logger *log.Logger) (jit.Options, error) {
	target, err := ppc64.ParseTarget(cfg.JIT.Target)
	if err != nil {
		return jit.Options{}, err
	}
	toc, err := cfg.toc()
	if err != nil {
		return jit.Options{}, err
	}
	return jit.Options{
		Enabled: cfg.JIT.Enabled,
		Target:  target,
		TOC:     toc,
		Logger:  logger,
		Verbose: cfg.JIT.Verbose,
		Jobs:    cfg.JIT.Jobs,
	}, nil
}

// Write encodes cfg as TOML.
func (cfg Config) Write(w io.Writer) error {
	return toml.NewEncoder(w).Encode(cfg)
}
