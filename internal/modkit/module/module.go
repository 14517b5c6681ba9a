// Package module holds the module contract and the bootstrap port registry
package module

import (
	phttp "payeerules/internal/platform/net/http"
)

// Module is the contract modkit wires, a sibling of modkit.Module so ports packages avoid import cycles
type Module interface {
	MountRoutes(r phttp.Router)
	Ports() any
	Name() string
}
