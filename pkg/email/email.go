// Package email holds address helpers shared by the auth and notification flows.
package email

import (
	"net/mail"
	"strings"
	"unicode"
)

var personalDomains = map[string]struct{}{
	"gmail.com":   {},
	"yahoo.com":   {},
	"hotmail.com": {},
	"outlook.com": {},
	"aol.com":     {},
	"icloud.com":  {},
}

// Normalize trims and lower-cases an address.
func Normalize(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// IsValid reports whether address is a bare addr-spec with a dotted domain.
func IsValid(address string) bool {
	parsed, err := mail.ParseAddress(address)
	if err != nil || parsed.Address != address {
		return false
	}
	d := Domain(address)
	return strings.Contains(d, ".") && !strings.HasPrefix(d, ".") && !strings.HasSuffix(d, ".")
}

// Domain returns the lower-cased part after '@', or "" when there is none.
func Domain(address string) string {
	at := strings.LastIndexByte(address, '@')
	if at < 0 || at == len(address)-1 {
		return ""
	}
	return strings.ToLower(address[at+1:])
}

// IsPersonalDomain reports whether address belongs to a consumer mailbox provider.
func IsPersonalDomain(address string) bool {
	_, ok := personalDomains[Domain(address)]
	return ok
}

// DeriveCompanyName returns the upper-cased first label of the address domain
// ("hr@acme.co.in" -> "ACME").
func DeriveCompanyName(address string) string {
	d := Domain(address)
	if d == "" {
		return ""
	}
	label, _, _ := strings.Cut(d, ".")
	return strings.ToUpper(label)
}

// DeriveDisplayName builds a greeting name from the local part
// ("priya.sharma@acme.com" -> "Priya Sharma").
func DeriveDisplayName(address string) string {
	localPart := address
	if at := strings.IndexByte(address, '@'); at >= 0 {
		localPart = address[:at]
	}

	parts := strings.FieldsFunc(localPart, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})
	if len(parts) == 0 {
		return "User"
	}
	for i, p := range parts {
		parts[i] = capitalize(p)
	}
	return strings.Join(parts, " ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}

	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
