package duckdb

import (
	"log/slog"

	"github.com/leapstack-labs/lenses/pkg/adapter"
)

// Name is the engine type under which the adapter registers itself.
const Name = "duckdb"

func init() {
	adapter.Register(Name, func(logger *slog.Logger) adapter.Adapter { return New(logger) })
}
