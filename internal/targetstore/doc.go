// Package targetstore persists encoded regression targets in SQLite.
//
// Each encode run gets a UUID and records the coder name and code size it
// was produced with; every row of the run stores the anchor, the target
// box and the resulting delta. The schema is managed with golang-migrate
// from migrations embedded in the binary.
package targetstore
