// Package storage persists the last good prayer table so the daemon can keep
// running when the mosque website is unreachable.
//
// Drivers:
//   - "file": one JSON snapshot, replaced atomically (temp file + rename)
//   - "sqlite": SQLite database file, replaced inside one transaction
//
// Both drivers also remember the last fired (date, prayer) so a restart inside
// a firing window doesn't play the adhan twice.
package storage
