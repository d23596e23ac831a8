package codegen

import (
	"testing"
	"time"
)

func TestGenerateLengthAndCharset(t *testing.T) {
	g := New()

	code, degraded, err := g.Generate("Juan Pérez", "u1")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if degraded {
		t.Fatalf("unexpected degraded flag")
	}
	if len(code) != CodeLength {
		t.Fatalf("code length = %d, want %d", len(code), CodeLength)
	}
	for _, c := range code {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			t.Fatalf("code %q contains non-hex char %q", code, c)
		}
	}
}

func TestGenerateUniqueness(t *testing.T) {
	g := New()
	seen := make(map[string]bool, 10000)

	for i := 0; i < 10000; i++ {
		code, _, err := g.Generate("invitado", "host")
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if seen[code] {
			t.Fatalf("duplicate code after %d generations: %s", i, code)
		}
		seen[code] = true
	}
}

func TestGenerateFixedClockStillUnique(t *testing.T) {
	// Saat donmuş olsa bile entropi farklı kod üretmeli.
	fixed := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	g := NewWithClock(func() time.Time { return fixed })

	a, _, err := g.Generate("mismo", "host")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	b, _, err := g.Generate("mismo", "host")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if a == b {
		t.Fatalf("identical codes with fixed clock: %s", a)
	}
}
