// Package comparator decides whether a verifier-submitted value matches the
// employer's record for a single field.
package comparator

import (
	"strings"
	"time"
)

// Kind selects the comparison rule for a field.
type Kind int

const (
	// KindText is case-insensitive, whitespace-trimmed equality.
	KindText Kind = iota
	// KindName is KindText that also ignores periods and spaces.
	KindName
	// KindDate compares calendar dates only.
	KindDate
	// KindEnum is exact normalized equality with no relaxation.
	KindEnum
)

// DateLayout is the display and primary input layout for date fields.
const DateLayout = "2006-01-02"

// Field describes one compared attribute.
type Field struct {
	Key   string
	Label string
	Kind  Kind
}

// Result is the verdict for one field. Values keep their original casing for display.
type Result struct {
	Field         string `json:"field"`
	Label         string `json:"label"`
	VerifierValue string `json:"verifierValue"`
	CompanyValue  string `json:"companyValue"`
	IsMatch       bool   `json:"isMatch"`
}

// Compare applies the rule for f.Kind to submitted and reference.
// An empty reference never matches.
func Compare(f Field, submitted, reference string) Result {
	res := Result{
		Field:         f.Key,
		Label:         f.Label,
		VerifierValue: strings.TrimSpace(submitted),
		CompanyValue:  strings.TrimSpace(reference),
	}
	if res.CompanyValue == "" {
		return res
	}

	switch f.Kind {
	case KindName:
		res.IsMatch = NamesMatch(submitted, reference)
	case KindDate:
		s, serr := ParseDate(submitted)
		r, rerr := ParseDate(reference)
		res.IsMatch = serr == nil && rerr == nil && SameDay(s, r)
	default:
		res.IsMatch = normalize(submitted) == normalize(reference)
	}
	return res
}

// CompareDate compares a submitted date against a stored date. The reference's
// time of day and zone are ignored.
func CompareDate(f Field, submitted, reference time.Time) Result {
	res := Result{Field: f.Key, Label: f.Label}
	if !submitted.IsZero() {
		res.VerifierValue = submitted.Format(DateLayout)
	}
	if reference.IsZero() {
		return res
	}
	res.CompanyValue = reference.Format(DateLayout)
	res.IsMatch = !submitted.IsZero() && SameDay(submitted, reference)
	return res
}

// NamesMatch reports whether two person names are equal ignoring case, outer
// whitespace, periods and interior spaces ("S. Sathish" == "S Sathish").
func NamesMatch(a, b string) bool {
	na, nb := normalize(a), normalize(b)
	if na == "" || nb == "" {
		return false
	}
	if na == nb {
		return true
	}
	return compact(na) == compact(nb)
}

// SameDay compares the calendar date each value carries in its own location.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// ParseDate accepts YYYY-MM-DD or RFC 3339.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func compact(s string) string {
	return strings.NewReplacer(".", "", " ", "").Replace(s)
}
