package httpkit

import (
	"crypto/subtle"
	"net/http"
	"strings"

	perr "payeerules/internal/platform/errors"
)

// TokenFunc resolves a bearer token to the tenant it acts for
type TokenFunc func(token string) (tenantID string, err error)

// Port implements middleware.AuthPort by reading Authorization and delegating to a TokenFunc
type Port struct {
	parse TokenFunc
}

// NewPortFunc builds a Port from a parser function
func NewPortFunc(fn TokenFunc) *Port { return &Port{parse: fn} }

// StaticTokens resolves tokens from a fixed token to tenant map
func StaticTokens(tokens map[string]string) TokenFunc {
	return func(token string) (string, error) {
		for tok, tenant := range tokens {
			if subtle.ConstantTimeCompare([]byte(tok), []byte(token)) == 1 && tenant != "" {
				return tenant, nil
			}
		}
		return "", perr.Unauthorizedf("unknown token")
	}
}

// Parse returns the tenant for the request's bearer token
func (p *Port) Parse(r *http.Request) (string, error) {
	raw, err := Bearer(r)
	if err != nil {
		return "", err
	}
	if p == nil || p.parse == nil {
		return "", perr.Unauthorizedf("invalid bearer token")
	}
	tid, err := p.parse(raw)
	if err != nil || tid == "" {
		return "", perr.Unauthorizedf("invalid bearer token")
	}
	return tid, nil
}

// Bearer returns the raw token from Authorization, the scheme is case-insensitive
func Bearer(r *http.Request) (string, error) {
	s := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "bearer"
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return "", perr.Unauthorizedf("missing bearer token")
	}
	raw := strings.TrimSpace(s[len(prefix):])
	if raw == "" {
		return "", perr.Unauthorizedf("missing bearer token")
	}
	return raw, nil
}
