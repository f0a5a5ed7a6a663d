package config

import "testing"

func TestParseDefaults(t *testing.T) {
	c, err := Parse("")
	if err != nil {
		t.Fatalf("Parse(\"\") = %v", err)
	}
	if c.Major != "marksweep" || c.NurserySize != defaultNurserySize {
		t.Errorf("Parse(\"\") = %+v, want the built-in defaults", c)
	}
}

func TestParseOverrides(t *testing.T) {
	c, err := Parse("major=copying,wbarrier=remset,nursery-size=1m,workers=8,xdomain-checks,print-allowance")
	if err != nil {
		t.Fatalf("Parse() = %v", err)
	}
	if c.Major != "copying" {
		t.Errorf("Major = %q, want copying", c.Major)
	}
	if c.WBarrier != "remset" {
		t.Errorf("WBarrier = %q, want remset", c.WBarrier)
	}
	if c.NurserySize != 1<<20 {
		t.Errorf("NurserySize = %d, want %d", c.NurserySize, 1<<20)
	}
	if c.Workers != 8 {
		t.Errorf("Workers = %d, want 8", c.Workers)
	}
	if !c.XDomainChecks || !c.PrintAllowance {
		t.Errorf("bare boolean keys not applied: %+v", c)
	}
}

func TestParseUnknownKey(t *testing.T) {
	if _, err := Parse("bogus=1"); err == nil {
		t.Error("Parse(\"bogus=1\") succeeded, want an error")
	}
}

func TestParseValidatesMaxHeapVsNursery(t *testing.T) {
	if _, err := Parse("max-heap-size=1m,nursery-size=1m"); err == nil {
		t.Error("Parse with max-heap-size < 4x nursery-size succeeded, want a Validate error")
	}
}

func TestParseRoundsNurserySizeUpToPowerOfTwo(t *testing.T) {
	cfg, err := Parse("nursery-size=3k,max-heap-size=64k")
	if err != nil {
		t.Fatalf("Parse() = %v", err)
	}
	if cfg.NurserySize != 4<<10 {
		t.Errorf("NurserySize = %d, want %d (3k rounded up to 4k)", cfg.NurserySize, 4<<10)
	}
}

func TestParseSizeSuffixes(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"nursery-size=512", 512},
		{"nursery-size=4k", 4 << 10},
		{"nursery-size=4K", 4 << 10},
		{"nursery-size=4m", 4 << 20},
		{"nursery-size=1g,max-heap-size=4g", 1 << 30},
	}
	for _, c := range cases {
		cfg, err := Parse(c.in)
		if err != nil {
			t.Errorf("Parse(%q) = %v", c.in, err)
			continue
		}
		if cfg.NurserySize != c.want {
			t.Errorf("Parse(%q).NurserySize = %d, want %d", c.in, cfg.NurserySize, c.want)
		}
	}
}
