// Package modkit wires service modules to shared deps
package modkit

import (
	"payeerules/internal/modkit/repokit"
	"payeerules/internal/platform/config"
	"payeerules/internal/platform/logger"
	"payeerules/internal/platform/store"
)

// Deps holds what every module may need, optional stores stay nil
type Deps struct {
	Log logger.Logger
	Cfg config.Conf
	PG  repokit.TxRunner
	CH  store.Clickhouse
}

// FromStore fills the store seams from an opened Store
func FromStore(s *store.Store, cfg config.Conf) Deps {
	d := Deps{Log: *logger.Get(), Cfg: cfg}
	if s != nil {
		d.Log = s.Log
		d.PG = s.PG
		d.CH = s.CH
	}
	return d
}
