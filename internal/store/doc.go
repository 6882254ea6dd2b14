// Package store manages the backend session used by one mapping operation.
//
// A Session holds at most one connection, opened lazily through database/sql
// with either the MySQL driver (github.com/go-sql-driver/mysql) or SQLite
// (github.com/mattn/go-sqlite3). Statements are executed synchronously and
// query results are buffered in full before they are handed back, so callers
// can disconnect immediately afterwards.
//
// # Connection lifecycle
//
//	Disconnected --Connect ok--> Connected
//	Connected --Disconnect / rejected statement--> Disconnected
//
// Connect is a no-op on a connected session and leaves the session
// Disconnected when it fails. Exec and Query connect on demand. Disconnect is
// idempotent.
//
// # SQLite configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
