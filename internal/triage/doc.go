// Package triage is the business boundary for sitrep triage. It defines
// the Engine (stage sequencing and failure isolation), the Service (input
// gate, result lifecycle, notification), the Store interface, and the
// Result model.
package triage
