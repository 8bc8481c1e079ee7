//go:build go1.18

package domain

import (
	"testing"
	"unicode/utf8"
)

// FuzzParseVerifierID tests that parsing never panics on arbitrary input
// and always returns either a valid ID or an error.
func FuzzParseVerifierID(f *testing.F) {
	f.Add("")
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("00000000-0000-0000-0000-000000000000")
	f.Add("not-a-uuid")
	f.Add("'; DROP TABLE verifiers;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseVerifierID(input)
		if err == nil {
			roundTrip, err2 := ParseVerifierID(id.String())
			if err2 != nil {
				t.Errorf("Valid ID failed round-trip: %v", err2)
			}
			if roundTrip != id {
				t.Error("Round-trip changed ID value")
			}
			if id.IsNil() {
				t.Error("nil UUID accepted")
			}
		}
	})
}

// FuzzParseEmployeeID checks the normalization invariant holds for any accepted input.
func FuzzParseEmployeeID(f *testing.F) {
	f.Add("6002056")
	f.Add(" emp-01 ")
	f.Add("é")

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseEmployeeID(input)
		if err != nil {
			return
		}
		if !utf8.ValidString(id.String()) {
			t.Error("accepted invalid utf8")
		}
		again, err := ParseEmployeeID(id.String())
		if err != nil || again != id {
			t.Errorf("normalization not idempotent: %q -> %q", id, again)
		}
	})
}
