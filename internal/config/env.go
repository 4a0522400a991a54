package config

import (
	"os"
	"strconv"
	"strings"

	"k8s.io/klog/v2"

	"github.com/born-ml/siamese/internal/parallel"
)

// Environment variables read by Parallel.
const (
	EnvParallel   = "SIAMESE_PARALLEL"
	EnvNumWorkers = "SIAMESE_NUM_WORKERS"
	EnvMinChunk   = "SIAMESE_MIN_CHUNK"
)

// Var returns an environment variable with surrounding quotes and spaces removed.
func Var(key string) string {
	return strings.Trim(strings.TrimSpace(os.Getenv(key)), "\"'")
}

// BoolWithDefault returns a getter for a boolean variable.
// Unparseable values count as true, so SIAMESE_PARALLEL=yes enables.
func BoolWithDefault(k string) func(defaultValue bool) bool {
	return func(defaultValue bool) bool {
		if s := Var(k); s != "" {
			b, err := strconv.ParseBool(s)
			if err != nil {
				return true
			}
			return b
		}
		return defaultValue
	}
}

// Uint returns a getter for an unsigned integer variable with a default.
func Uint(key string, defaultValue uint) func() uint {
	return func() uint {
		if s := Var(key); s != "" {
			if n, err := strconv.ParseUint(s, 10, 64); err != nil {
				klog.Warningf("invalid environment variable %s=%q, using default %d", key, s, defaultValue)
			} else {
				return uint(n)
			}
		}
		return defaultValue
	}
}

// Parallel returns the kernel fan-out configuration, starting from
// parallel.DefaultConfig and applying any environment overrides.
func Parallel() parallel.Config {
	cfg := parallel.DefaultConfig()
	cfg.Enabled = BoolWithDefault(EnvParallel)(cfg.Enabled)
	cfg.NumWorkers = int(Uint(EnvNumWorkers, uint(cfg.NumWorkers))())
	cfg.MinChunkSize = int(Uint(EnvMinChunk, uint(cfg.MinChunkSize))())
	if cfg.NumWorkers < 1 {
		cfg.NumWorkers = 1
	}
	if cfg.MinChunkSize < 1 {
		cfg.MinChunkSize = 1
	}
	return cfg
}

// EnvVar describes one environment setting for help output.
type EnvVar struct {
	Name        string
	Value       any
	Description string
}

// AsMap returns the current environment settings keyed by name.
func AsMap() map[string]EnvVar {
	p := Parallel()
	return map[string]EnvVar{
		EnvParallel:   {EnvParallel, p.Enabled, "Fan kernels out over goroutines (default: true on multi-core hosts)"},
		EnvNumWorkers: {EnvNumWorkers, p.NumWorkers, "Goroutines per kernel (default: number of CPUs)"},
		EnvMinChunk:   {EnvMinChunk, p.MinChunkSize, "Minimum elements per goroutine"},
	}
}
