package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// =============================================================================
// Snapshot Serialization API
// =============================================================================

// wireSnapshot is the JSON form of a Snapshot.
type wireSnapshot struct {
	Nodes []*Node `json:"nodes"`
	Links []*Link `json:"links"`
}

// MarshalJSON implements json.Marshaler. Nodes keep input order.
func (s *Snapshot) MarshalJSON() ([]byte, error) {
	w := wireSnapshot{Nodes: s.Nodes(), Links: s.Links()}
	if w.Nodes == nil {
		w.Nodes = []*Node{}
	}
	if w.Links == nil {
		w.Links = []*Link{}
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler. Links must reference nodes
// present in the document.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var w wireSnapshot
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	out := New()
	for _, n := range w.Nodes {
		if n == nil || n.Hash == "" {
			return fmt.Errorf("node without hash")
		}
		if _, dup := out.nodes.Get(n.Hash); dup {
			return fmt.Errorf("duplicate node %s", n.Hash)
		}
		n.Commit = n.Commit.Clone()
		out.nodes.Set(n.Hash, n)
	}
	for _, l := range w.Links {
		src, ok := out.nodes.Get(l.SourceHash)
		if !ok {
			return fmt.Errorf("link %s→%s: unknown source", l.SourceHash, l.TargetHash)
		}
		dst, ok := out.nodes.Get(l.TargetHash)
		if !ok {
			return fmt.Errorf("link %s→%s: unknown target", l.SourceHash, l.TargetHash)
		}
		out.links = append(out.links, &Link{SourceHash: l.SourceHash, TargetHash: l.TargetHash, Source: src, Target: dst})
	}
	*s = *out
	return nil
}

// MarshalSnapshot converts a snapshot to indented JSON bytes.
func MarshalSnapshot(s *Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteSnapshot(s, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteSnapshot writes a snapshot as JSON to an io.Writer.
func WriteSnapshot(s *Snapshot, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteSnapshotFile writes a snapshot to a JSON file.
// The file is created with 0644 permissions.
func WriteSnapshotFile(s *Snapshot, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteSnapshot(s, f)
}

// ReadSnapshot decodes a JSON snapshot from an io.Reader.
func ReadSnapshot(r io.Reader) (*Snapshot, error) {
	s := New()
	if err := json.NewDecoder(r).Decode(s); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return s, nil
}

// ReadSnapshotFile reads a JSON snapshot file.
func ReadSnapshotFile(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadSnapshot(f)
}
