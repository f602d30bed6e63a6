//go:build sqlite_vec && cgo

package store

import (
	_ "github.com/mattn/go-sqlite3"
)

func init() {
	// Prefer the cgo driver + native sqlite-vec extension (registered by
	// init_vec.go's vec.Auto()) when built with this tag.
	driverName = "sqlite3"
	// The native extension exposes its own cosine distance function; our
	// vec_compat.go shim is modernc-specific and not registered under cgo.
	distanceFuncName = "vec_distance_cosine"
}
