package validation

import (
	"fmt"
	"net/netip"
	"regexp"
	"sort"
	"strings"

	"supportdesk/internal/domain"
)

// Field rules are defined once here and applied at both the submission
// boundary (services) and the persistence boundary (store), so the two
// cannot drift apart.

var (
	// Letters only, single space/hyphen/apostrophe separators, no leading or
	// trailing separator. "Mary-Jane O'Connor" is fine; "John--Doe" is not.
	fullNamePattern = regexp.MustCompile(`^[A-Za-z]+([ '\-][A-Za-z]+)*$`)

	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

	// E.164: leading +, country code, up to 15 digits total.
	phonePattern = regexp.MustCompile(`^\+[1-9]\d{6,14}$`)

	phoneStrip = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")
)

// Errors maps field names to human-readable rejection messages. A submission
// fails as a unit when any field fails.
type Errors map[string]string

func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(e))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, e[f]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Fields carries the raw field values of one submission. Which rules apply
// depends on Tier; every tier checks the fields of the tiers beneath it.
type Fields struct {
	Tier                   domain.Tier
	Subject                string
	FullName               string
	Email                  string
	Message                string
	PhoneNumber            string
	Country                string
	IPAddress              string
	ContactReason          string
	PreferredContactMethod string
}

// Check applies all rules for the given tier in field order and collects
// every failure. A nil return means the submission is acceptable.
func Check(f Fields) Errors {
	errs := Errors{}

	if err := Subject(f.Subject); err != nil {
		errs["subject"] = err.Error()
	}
	if err := FullName(f.FullName); err != nil {
		errs["full_name"] = err.Error()
	}
	if err := Email(f.Email); err != nil {
		errs["email"] = err.Error()
	}
	if err := Message(f.Message); err != nil {
		errs["message"] = err.Error()
	}

	if f.Tier == domain.TierPhone || f.Tier == domain.TierLocation || f.Tier == domain.TierFull {
		if err := PhoneNumber(f.PhoneNumber); err != nil {
			errs["phone_number"] = err.Error()
		}
	}
	if f.Tier == domain.TierLocation || f.Tier == domain.TierFull {
		if err := Country(f.Country); err != nil {
			errs["country"] = err.Error()
		}
		if err := IPAddress(f.IPAddress); err != nil {
			errs["ip_address"] = err.Error()
		}
	}
	if f.Tier == domain.TierFull {
		if err := ContactReason(f.ContactReason); err != nil {
			errs["contact_reason"] = err.Error()
		}
		if err := ContactMethod(f.PreferredContactMethod); err != nil {
			errs["preferred_contact_method"] = err.Error()
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Subject requires 1-100 characters.
func Subject(v string) error {
	if len(v) < 1 {
		return fmt.Errorf("subject is required")
	}
	if len(v) > 100 {
		return fmt.Errorf("subject must be 100 characters or fewer")
	}
	return nil
}

// FullName requires 1-100 characters of letters, spaces, hyphens, and
// apostrophes.
func FullName(v string) error {
	if len(v) < 1 {
		return fmt.Errorf("full name is required")
	}
	if len(v) > 100 {
		return fmt.Errorf("full name must be 100 characters or fewer")
	}
	if !fullNamePattern.MatchString(v) {
		return fmt.Errorf("enter a valid name: only letters, spaces, hyphens, and apostrophes are allowed")
	}
	return nil
}

// Email requires a syntactically valid address of at most 254 characters.
func Email(v string) error {
	if len(v) < 1 {
		return fmt.Errorf("email is required")
	}
	if len(v) > 254 {
		return fmt.Errorf("email must be 254 characters or fewer")
	}
	if !emailPattern.MatchString(v) {
		return fmt.Errorf("enter a valid email address")
	}
	return nil
}

// Message requires non-empty free text.
func Message(v string) error {
	if len(v) < 1 {
		return fmt.Errorf("message is required")
	}
	return nil
}

// PhoneNumber requires an international-format number, e.g. +12025550109.
// Spaces, hyphens, and parentheses are tolerated as formatting.
func PhoneNumber(v string) error {
	if len(v) < 1 {
		return fmt.Errorf("phone number is required")
	}
	if !phonePattern.MatchString(phoneStrip.Replace(v)) {
		return fmt.Errorf("enter a valid phone number in international format, e.g. +12025550109")
	}
	return nil
}

// IPAddress accepts an empty value or a valid IPv4/IPv6 literal.
func IPAddress(v string) error {
	if v == "" {
		return nil
	}
	if _, err := netip.ParseAddr(v); err != nil {
		return fmt.Errorf("enter a valid IPv4 or IPv6 address")
	}
	return nil
}

// Country accepts an empty value or a recognized ISO 3166-1 alpha-2 code.
func Country(v string) error {
	if v == "" {
		return nil
	}
	if !ValidCountryCode(v) {
		return fmt.Errorf("enter a recognized two-letter country code")
	}
	return nil
}

// ContactReason requires one of the declared reason values.
func ContactReason(v string) error {
	switch domain.ContactReason(v) {
	case domain.ReasonSupport, domain.ReasonSales, domain.ReasonFeedback:
		return nil
	}
	return fmt.Errorf("select a valid reason for contact")
}

// ContactMethod requires one of the declared contact method values.
func ContactMethod(v string) error {
	switch domain.ContactMethod(v) {
	case domain.MethodEmail, domain.MethodPhone, domain.MethodText:
		return nil
	}
	return fmt.Errorf("select a valid preferred contact method")
}
