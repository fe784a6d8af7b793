// Package device derives a canonical fingerprint from a client's user-agent
// string. Refresh tokens are bound to the fingerprint computed at login, so
// the serialization must be deterministic: same input, same output, fields in
// a fixed order.
package device

import (
	"fmt"
	"strings"

	"github.com/mileusna/useragent"
)

// Fingerprinter maps a raw user-agent string to a canonical fingerprint.
type Fingerprinter struct{}

func NewFingerprinter() *Fingerprinter {
	return &Fingerprinter{}
}

// Fingerprint parses the user-agent into browser, OS, and device fields and
// serializes them as "key:value||" groups in fixed order. Field values coming
// from a UA parser do not contain the ":" or "||" delimiters; anything else is
// an upstream data problem, not handled here.
func (f *Fingerprinter) Fingerprint(rawUserAgent string) string {
	ua := useragent.Parse(rawUserAgent)

	var b strings.Builder
	fmt.Fprintf(&b, "browser:%s - %s||", ua.Name, ua.Version)
	fmt.Fprintf(&b, "os:%s - %s||", ua.OS, ua.OSVersion)
	fmt.Fprintf(&b, "device:%s||", ua.Device)
	return b.String()
}
