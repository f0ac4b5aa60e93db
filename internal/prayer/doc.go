// Package prayer holds the prayer-time domain model and the pure parts of the
// scheduling engine.
//
// It covers:
//   - TimeOfDay parsing from the mosque table (12h text, meridiem implied by prayer)
//   - Per-day validation (Fajr < Dhuhr < Asr < Maghrib < Ishaa)
//   - Month tables keyed by day-of-month
//   - Resolving the next prayer strictly after "now", including day rollover
//
// Nothing in this package performs I/O.
package prayer
