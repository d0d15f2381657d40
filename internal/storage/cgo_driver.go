//go:build cgo_sqlite

package storage

import (
	_ "github.com/mattn/go-sqlite3" // registers driver name "sqlite3"
)

// driverName selects the SQLite driver used by Open. The cgo build
// (`-tags cgo_sqlite`) swaps in mattn/go-sqlite3, whose native FTS5/JSON1
// extensions are sometimes faster on platforms where cgo is acceptable; the
// default build stays on the pure-Go modernc.org/sqlite driver so `go build`
// never requires a C toolchain.
const driverName = "sqlite3"
