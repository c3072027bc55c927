//go:build !cgo

package main

import (
	"errors"

	"github.com/dusk-indust/spectrace/internal/graph"
)

// openStore returns an in-memory graph; Kuzu needs cgo.
func openStore(dbPath string) (graph.Store, error) {
	if dbPath != "" {
		return nil, errors.New("--db requires a build with cgo enabled")
	}
	return graph.NewMemStore(), nil
}
