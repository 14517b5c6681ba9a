package modkit

import (
	phttp "payeerules/internal/platform/net/http"
)

// Module is what every service module exposes to main
type Module interface {
	// MountRoutes mounts the module's HTTP surface, modules without one leave it empty
	MountRoutes(r phttp.Router)
	// Ports returns the module's port set for cross wiring
	Ports() any
	Name() string
}

// Builder constructs a Module from shared deps and options
type Builder func(Deps, ...Option) Module
