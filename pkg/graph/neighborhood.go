package graph

import (
	"github.com/matzehuels/gitmorph/pkg/errors"
)

// Neighborhood is a commit together with every link that touches it. The
// renderer uses it to highlight a commit.
type Neighborhood struct {
	Node     *Node   `json:"node"`
	Links    []*Link `json:"links"`
	Parents  []*Node `json:"parents"`
	Children []*Node `json:"children"`
}

// Neighborhood returns the node with the given hash and its incident links.
// Unknown hashes yield a NOT_FOUND error.
func (s *Snapshot) Neighborhood(hash string) (Neighborhood, error) {
	n, ok := s.Node(hash)
	if !ok {
		return Neighborhood{}, errors.New(errors.ErrCodeNotFound, "commit %s not found", hash)
	}
	nb := Neighborhood{Node: n, Links: []*Link{}, Parents: []*Node{}, Children: []*Node{}}
	for _, l := range s.Links() {
		switch hash {
		case l.SourceHash:
			nb.Links = append(nb.Links, l)
			nb.Parents = append(nb.Parents, l.Target)
		case l.TargetHash:
			nb.Links = append(nb.Links, l)
			nb.Children = append(nb.Children, l.Source)
		}
	}
	return nb, nil
}
