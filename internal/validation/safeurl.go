package validation

import (
	"net"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("safe_url", validateSafeURL)
}

// ValidatePageURL checks that a submitted page URL is safe to fetch:
// http(s) only, with a host that is not loopback, private or a link-local
// metadata address.
func ValidatePageURL(raw string) []Reason {
	if err := validate.Var(raw, "required,safe_url"); err != nil {
		return []Reason{ReasonUnsafeURL}
	}
	return nil
}

func validateSafeURL(fl validator.FieldLevel) bool {
	urlStr := fl.Field().String()

	u, err := url.Parse(urlStr)
	if err != nil {
		return false
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}

	if u.Host == "" {
		return false
	}

	host := u.Hostname()

	forbiddenHosts := []string{
		"localhost",
		"127.0.0.1",
		"::1",
		"0.0.0.0",
		"169.254.169.254",
	}

	for _, forbidden := range forbiddenHosts {
		if strings.EqualFold(host, forbidden) {
			return false
		}
	}

	if ip := net.ParseIP(host); ip != nil {
		if ip.IsPrivate() || ip.IsLoopback() {
			return false
		}
	}

	return true
}
