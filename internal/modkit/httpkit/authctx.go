package httpkit

import (
	"net/http"

	perr "payeerules/internal/platform/errors"
	pnet "payeerules/internal/platform/net"
)

// Tenant returns the authenticated tenant id
func Tenant(r *http.Request) (string, error) {
	tid := pnet.TenantID(r.Context())
	if tid == "" {
		return "", perr.Unauthorizedf("missing tenant scope")
	}
	return tid, nil
}
