// Package ir provides the record model shared by every tablemap package.
//
// This package contains the types the mapper works with: field kinds, the
// runtime Schema of a record type, Record instances with per-field presence,
// fetched result rows, the error taxonomy, and the JSON form exchanged by the
// type-name entry points. ir imports nothing internal.
//
// Key design constraints:
//   - A Schema is an explicit value handed to every component; nothing reflects
//     on Go types to discover fields
//   - Field order is declaration order and is the only iteration order used
//     when building statements
//   - Presence is tracked separately from values; an absent field is never
//     the same as a zero value
//   - Unsupported kinds (message, group, enum, repeated) can be described but
//     never become present on a Record
package ir
