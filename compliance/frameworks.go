// Package compliance builds the fixed compliance snapshot attached to every
// encrypted document.
//
// There is no per-framework rule engine: each recognized framework maps to
// the single cipher-availability flag at snapshot time. Snapshots are frozen
// onto documents at encryption time and never recomputed.
package compliance

import "slices"

// Recognized framework identifiers. The relational store writes exactly one
// compliance row per framework per document; a document is fully compliant
// only when all of them are compliant.
const (
	GDPR32    = "GDPR-32"
	GDPR5     = "GDPR-5"
	ISO27001  = "ISO-27001"
	ISO27701  = "ISO-27701"
	ISO27017  = "ISO-27017"
	NIST80057 = "NIST-800-57"
	NISTCSF   = "NIST-CSF"
	NCSCPQC   = "NCSC-PQC"
	SOC2      = "SOC2"
)

// Assessment constants recorded in compliance rows. Scoring is binary.
const (
	ScoreCompliant    = 100
	ScoreNonCompliant = 0

	FindingCompliant    = "Quantum-safe encryption enabled"
	FindingNonCompliant = "Not compliant"
)

// frameworks holds the recognized identifiers in insertion order.
var frameworks = []string{
	GDPR32,
	GDPR5,
	ISO27001,
	ISO27701,
	ISO27017,
	NIST80057,
	NISTCSF,
	NCSCPQC,
	SOC2,
}

// Frameworks returns the recognized framework identifiers in stable order.
func Frameworks() []string {
	return slices.Clone(frameworks)
}

// Count returns the number of recognized frameworks.
func Count() int {
	return len(frameworks)
}

// Snapshot fans the cipher-availability flag out to every recognized
// framework. The result is attached to documents at encryption time and
// frozen thereafter, even if availability later changes.
func Snapshot(available bool) map[string]bool {
	status := make(map[string]bool, len(frameworks))
	for _, name := range frameworks {
		status[name] = available
	}
	return status
}

// FullyCompliant reports whether a snapshot has a compliant entry for every
// recognized framework. Used by the file-backed store's aggregate counting;
// the relational store computes the same predicate in SQL.
func FullyCompliant(snapshot map[string]bool) bool {
	for _, name := range frameworks {
		if !snapshot[name] {
			return false
		}
	}
	return true
}

// ServiceLabels are the coarse framework names advertised by the status
// endpoint. They are marketing labels, distinct from the snapshot keys.
func ServiceLabels() []string {
	return []string{"GDPR", "HIPAA", "PCI-DSS", "ISO 27001", "Post-Quantum Ready"}
}
