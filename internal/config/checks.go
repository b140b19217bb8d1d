package config

import (
	"fmt"
	"os"
	"strings"
)

// CheckError is a single startup configuration violation. The Category/Code
// pair is stable so deployments can be gated on specific checks in CI.
type CheckError struct {
	Category string
	Code     string
	Message  string
	Hint     string
}

func (e CheckError) Error() string {
	return fmt.Sprintf("%s.%s: %s", e.Category, e.Code, e.Message)
}

// CheckErrors is the full set of violations found by one check pass.
type CheckErrors []CheckError

func (e CheckErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Check verifies deploy-time requirements before the server accepts
// traffic: the GeoIP database must exist if configured, the confirmation
// template must resolve when confirmation sending is enabled, and all SMTP
// settings must be present when sending is enabled outside debug mode.
// All violations are collected, not just the first.
func (c *Config) Check() CheckErrors {
	var errs CheckErrors

	if c.Support.GeoIPPath != "" {
		if _, err := os.Stat(c.Support.GeoIPPath); err != nil {
			errs = append(errs, CheckError{
				Category: "geoip",
				Code:     "E001",
				Message:  "GEOIP_PATH is set to a non-existent path",
				Hint:     "Ensure the path set in GEOIP_PATH exists.",
			})
		}
	}

	if c.Support.SendConfirmation {
		if c.Support.ConfirmationTemplate == "" {
			errs = append(errs, CheckError{
				Category: "support",
				Code:     "E001",
				Message:  "SUPPORT_CONFIRMATION_TEMPLATE is not set",
				Hint:     "Set SUPPORT_CONFIRMATION_TEMPLATE or disable SUPPORT_SEND_CONFIRMATION.",
			})
		} else if c.Support.ResolveConfirmationTemplate() == "" {
			errs = append(errs, CheckError{
				Category: "support",
				Code:     "E002",
				Message:  "SUPPORT_CONFIRMATION_TEMPLATE does not resolve to an existing file",
				Hint:     "Ensure the template exists under TEMPLATE_DIR or one of FALLBACK_TEMPLATE_DIRS.",
			})
		}
	}

	if c.Support.SendConfirmation && !c.App.Debug {
		if c.Email.SMTPHost == "" {
			errs = append(errs, emailCheckError("E001", "SMTP_HOST"))
		}
		if c.Email.SMTPPort == 0 {
			errs = append(errs, emailCheckError("E002", "SMTP_PORT"))
		}
		if c.Email.Username == "" {
			errs = append(errs, emailCheckError("E003", "SMTP_USERNAME"))
		}
		if c.Email.Password == "" {
			errs = append(errs, emailCheckError("E004", "SMTP_PASSWORD"))
		}
		if !c.Email.UseTLS {
			errs = append(errs, emailCheckError("E005", "SMTP_USE_TLS"))
		}
	}

	return errs
}

func emailCheckError(code, setting string) CheckError {
	return CheckError{
		Category: "email",
		Code:     code,
		Message:  fmt.Sprintf("%s is not set", setting),
		Hint: fmt.Sprintf("%s must be set because DEBUG is false and SUPPORT_SEND_CONFIRMATION "+
			"is enabled. Configure all outbound mail settings to send confirmations in production.", setting),
	}
}
