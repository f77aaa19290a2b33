package mussels

import "testing"

func TestVersionCompareNumeric(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"1.2.10", "1.2.9", 1},
		{"1.2.9", "1.2.10", -1},
		{"1.2.9", "1.2.9", 0},
		{"1.2.9", "1.2.9-rc1", 1},
		{"1.2.9-rc1", "1.2.9", -1},
		{"3.20", "3.16", 1},
		{"1.36.0", "1.36.0", 0},
	}
	for _, c := range cases {
		got := Version(c.a).Compare(Version(c.b))
		if sign(got) != sign(c.want) {
			t.Errorf("Compare(%q, %q) = %d, want sign %d", c.a, c.b, got, c.want)
		}
	}
}

func TestVersionComparePatchLetterSuffix(t *testing.T) {
	// Grounded on the openssl 1.1.1/1.1.1a/1.1.1b recipe series.
	if !(Version("1.1.1b").GreaterThan(Version("1.1.1a"))) {
		t.Errorf("expected 1.1.1b > 1.1.1a")
	}
	if !(Version("1.1.1a").GreaterThan(Version("1.1.1"))) {
		t.Errorf("expected 1.1.1a > 1.1.1")
	}
	if !(Version("1.1.2").GreaterThan(Version("1.1.1b"))) {
		t.Errorf("expected 1.1.2 > 1.1.1b")
	}
}

func TestVersionTotalOrderTransitive(t *testing.T) {
	v1 := Version("1.2.10")
	v2 := Version("1.2.9")
	v3 := Version("1.2.9-rc1")
	if !v1.GreaterThan(v2) || !v2.GreaterThan(v3) {
		t.Fatalf("expected 1.2.10 > 1.2.9 > 1.2.9-rc1")
	}
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}
