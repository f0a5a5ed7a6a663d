// Package config parses the collector's key=value init options (§6
// "Configuration (key=value pairs at init)"), the way an embedding runtime
// would pass GODEBUG/MONO_GC_PARAMS-style settings.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/coregc/coregc/internal/gc"
)

var logger = log.New(os.Stderr, "coregc/config: ", log.Ltime)

const (
	defaultNurserySize   = 4 << 20  // 4MB
	defaultMaxHeapSize   = 512 << 20
	defaultSoftHeapLimit = 480 << 20
	defaultWorkers       = 4
)

// Defaults returns a Config populated with the collector's built-in
// defaults, before any key=value overrides are applied.
func Defaults() *gc.Config {
	return &gc.Config{
		Major:         "marksweep",
		WBarrier:      "cardtable",
		MaxHeapSize:   defaultMaxHeapSize,
		SoftHeapLimit: defaultSoftHeapLimit,
		NurserySize:   defaultNurserySize,
		Workers:       defaultWorkers,
		StackMark:     "conservative",
	}
}

// Parse parses a comma-separated list of key=value (or bare key, for
// boolean debug knobs) pairs, starting from Defaults(), validates the
// result, and returns it. A parse error is meant to be fatal at init per
// §7 "Config parse error": print usage, exit — callers decide how to
// surface that (cmd/gcctl does so via its cobra RunE).
func Parse(s string) (*gc.Config, error) {
	c := Defaults()
	if strings.TrimSpace(s) == "" {
		return c, nil
	}
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, value, hasValue := strings.Cut(pair, "=")
		if err := apply(c, key, value, hasValue); err != nil {
			return nil, fmt.Errorf("coregc/config: %w", err)
		}
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func apply(c *gc.Config, key, value string, hasValue bool) error {
	switch key {
	case "major":
		if !hasValue {
			return fmt.Errorf("major requires a value")
		}
		switch value {
		case "marksweep", "marksweep-fixed", "marksweep-par", "marksweep-fixed-par", "copying":
			c.Major = value
		default:
			return fmt.Errorf("unknown major collector %q", value)
		}
	case "wbarrier":
		if !hasValue {
			return fmt.Errorf("wbarrier requires a value")
		}
		switch value {
		case "remset", "cardtable":
			c.WBarrier = value
		default:
			return fmt.Errorf("unknown wbarrier %q", value)
		}
	case "max-heap-size":
		n, err := parseSize(value)
		if err != nil {
			return fmt.Errorf("max-heap-size: %w", err)
		}
		c.MaxHeapSize = n
	case "soft-heap-limit":
		n, err := parseSize(value)
		if err != nil {
			return fmt.Errorf("soft-heap-limit: %w", err)
		}
		c.SoftHeapLimit = n
	case "nursery-size":
		n, err := parseSize(value)
		if err != nil {
			return fmt.Errorf("nursery-size: %w", err)
		}
		aligned := nextPowerOfTwo(n)
		if aligned != n {
			logger.Printf("nursery-size %d is not a power of two, rounding up to %d", n, aligned)
		}
		c.NurserySize = aligned
		logger.Printf("nursery size set to %d bytes", c.NurserySize)
	case "workers":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("workers: %w", err)
		}
		c.Workers = n
	case "stack-mark":
		switch value {
		case "precise", "conservative":
			c.StackMark = value
		default:
			return fmt.Errorf("unknown stack-mark %q", value)
		}
	case "bridge":
		c.BridgeClass = value
	case "collect-before-allocs":
		if !hasValue {
			c.CollectBeforeAllocs = 1
			return nil
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("collect-before-allocs: %w", err)
		}
		c.CollectBeforeAllocs = n
	case "check-at-minor-collections":
		c.CheckAtMinorCollections = true
	case "xdomain-checks":
		c.XDomainChecks = true
	case "clear-at-gc":
		c.ClearAtGC = true
	case "verify-nursery-at-minor-gc":
		c.VerifyNurseryAtMinor = true
	case "dump-nursery-at-minor-gc":
		c.DumpNurseryAtMinor = true
	case "disable-minor":
		c.DisableMinor = true
	case "disable-major":
		c.DisableMajor = true
	case "heap-dump":
		c.HeapDumpFile = value
	case "print-allowance":
		c.PrintAllowance = true
	case "print-pinning":
		c.PrintPinning = true
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return nil
}

// nextPowerOfTwo rounds n up to the nearest power of two, mirroring sgen's
// nursery_bits derivation (sgen-gc.c increments a shift counter until
// 1<<bits meets the requested nursery size) but rounding instead of
// rejecting, since an embedder-supplied size here is advisory, not a
// hard runtime flag.
func nextPowerOfTwo(n int64) int64 {
	if n <= 1 {
		return 1
	}
	p := int64(1)
	for p < n {
		p <<= 1
	}
	return p
}

// parseSize parses a byte count, accepting a k/m/g suffix.
func parseSize(v string) (int64, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, fmt.Errorf("missing value")
	}
	mult := int64(1)
	switch suf := v[len(v)-1]; suf {
	case 'k', 'K':
		mult, v = 1<<10, v[:len(v)-1]
	case 'm', 'M':
		mult, v = 1<<20, v[:len(v)-1]
	case 'g', 'G':
		mult, v = 1<<30, v[:len(v)-1]
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, err
	}
	return n * mult, nil
}
