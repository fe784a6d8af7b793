package device

import (
	"strings"
	"testing"
)

const chromeOnWindows = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
const safariOnIPhone = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Mobile/15E148 Safari/604.1"

func TestFingerprint_Deterministic(t *testing.T) {
	t.Parallel()

	f := NewFingerprinter()

	a := f.Fingerprint(chromeOnWindows)
	b := f.Fingerprint(chromeOnWindows)
	if a != b {
		t.Fatalf("fingerprint not deterministic:\n%q\n%q", a, b)
	}
	if a == "" {
		t.Fatalf("expected non-empty fingerprint")
	}
}

func TestFingerprint_FieldOrder(t *testing.T) {
	t.Parallel()

	fp := NewFingerprinter().Fingerprint(chromeOnWindows)

	bi := strings.Index(fp, "browser:")
	oi := strings.Index(fp, "os:")
	di := strings.Index(fp, "device:")
	if bi != 0 || oi < bi || di < oi {
		t.Fatalf("unexpected field order in %q", fp)
	}
	if !strings.HasSuffix(fp, "||") {
		t.Fatalf("expected group-terminated fingerprint, got %q", fp)
	}
	if !strings.Contains(fp, "Chrome") {
		t.Fatalf("expected browser name in %q", fp)
	}
	if !strings.Contains(fp, "Windows") {
		t.Fatalf("expected OS name in %q", fp)
	}
}

func TestFingerprint_DistinguishesClients(t *testing.T) {
	t.Parallel()

	f := NewFingerprinter()
	if f.Fingerprint(chromeOnWindows) == f.Fingerprint(safariOnIPhone) {
		t.Fatalf("different clients must not share a fingerprint")
	}
}

func TestFingerprint_UnknownAgentIsStable(t *testing.T) {
	t.Parallel()

	f := NewFingerprinter()
	a := f.Fingerprint("unknown")
	b := f.Fingerprint("unknown")
	if a != b {
		t.Fatalf("unknown agent fingerprint not stable")
	}
}
