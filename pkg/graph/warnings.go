package graph

// WarningKind classifies a structural warning.
type WarningKind string

// Structural warning kinds. None of them stops the pipeline.
const (
	WarnDanglingParent WarningKind = "dangling_parent"
	WarnDuplicateHash  WarningKind = "duplicate_hash"
	WarnNoRoot         WarningKind = "no_root"
	WarnCycle          WarningKind = "cycle"
)

// Warning is a recoverable structural problem found while building or laying
// out a snapshot.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Hash    string      `json:"hash,omitempty"`
	Parent  string      `json:"parent,omitempty"`
	Message string      `json:"message"`
}

// String returns the warning message.
func (w Warning) String() string { return w.Message }

// CountByKind tallies warnings per kind.
func CountByKind(ws []Warning) map[WarningKind]int {
	out := make(map[WarningKind]int)
	for _, w := range ws {
		out[w.Kind]++
	}
	return out
}
