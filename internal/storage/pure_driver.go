//go:build !cgo_sqlite

package storage

// driverName selects the SQLite driver used by Open. See cgo_driver.go for
// the cgo-tagged alternative.
const driverName = "sqlite"
