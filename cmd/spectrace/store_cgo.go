//go:build cgo

package main

import (
	"fmt"

	"github.com/dusk-indust/spectrace/internal/graph"
)

// openStore opens a Kuzu graph, on disk when dbPath is set.
func openStore(dbPath string) (graph.Store, error) {
	var (
		store *graph.KuzuStore
		err   error
	)
	if dbPath == "" {
		store, err = graph.NewKuzuStore()
	} else {
		store, err = graph.NewKuzuFileStore(dbPath)
	}
	if err != nil {
		return nil, fmt.Errorf("opening graph database: %w", err)
	}
	return store, nil
}
