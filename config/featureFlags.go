package config

import (
	"os"
	"strings"
)

func envBool(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// PublishInvoiceEvents sends an invoice-posted message to Pub/Sub after every commit.
//
// Set via env:
// - PUBLISH_INVOICE_EVENTS=true
func PublishInvoiceEvents() bool {
	return envBool("PUBLISH_INVOICE_EVENTS")
}

// RequireAuth rejects API calls without a valid clerk token.
//
// Set via env:
// - REQUIRE_AUTH=true
func RequireAuth() bool {
	return envBool("REQUIRE_AUTH")
}

// InvoicePrefix is prepended to the allocated sequence number.
func InvoicePrefix() string {
	if v := strings.TrimSpace(os.Getenv("INVOICE_PREFIX")); v != "" {
		return v
	}
	return "INV-"
}

// CorsAllowedOrigins reads CORS_ALLOWED_ORIGINS="https://a.example,https://b.example".
// Empty means every origin is allowed.
func CorsAllowedOrigins() []string {
	raw := os.Getenv("CORS_ALLOWED_ORIGINS")
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
