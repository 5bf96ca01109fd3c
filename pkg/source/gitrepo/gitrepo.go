// Package gitrepo reads commit logs straight from a git repository.
//
// The output is what
//
//	git log --all --max-count=N --pretty=format:'%h (%an) (%ar) (%s) %d [%p]'
//
// prints: newest commits first by committer time across every ref, short
// hashes, relative dates and ref decorations. It is produced with go-git, so
// no git binary is needed.
package gitrepo

import (
	"container/heap"
	"context"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/matzehuels/gitmorph/pkg/commitlog"
	"github.com/matzehuels/gitmorph/pkg/errors"
)

// DefaultMaxEntries matches the server's default log window.
const DefaultMaxEntries = 30

// shortHashLen is git's default abbreviation length.
const shortHashLen = 7

// Options configures a Reader.
type Options struct {
	// MaxEntries caps the number of commits read. Zero means
	// DefaultMaxEntries.
	MaxEntries int

	// Now is the reference time for relative dates. Nil means time.Now.
	Now func() time.Time

	Logger *log.Logger
}

func (o *Options) setDefaults() {
	if o.MaxEntries <= 0 {
		o.MaxEntries = DefaultMaxEntries
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Reader produces commit logs from one repository.
type Reader struct {
	repo   *git.Repository
	root   string
	gitDir string
	opts   Options
}

// Open opens the repository containing path, searching parent directories
// for the .git directory.
func Open(path string, opts Options) (*Reader, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRepository, err, "open repository %s", path)
	}
	r := New(repo, opts)
	if wt, err := repo.Worktree(); err == nil {
		r.root = wt.Filesystem.Root()
		r.gitDir = filepath.Join(r.root, git.GitDirName)
	} else if abs, err := filepath.Abs(path); err == nil {
		// Bare repository: path is the git directory itself.
		r.root, r.gitDir = abs, abs
	}
	return r, nil
}

// New wraps an already opened repository. Root and GitDir are empty.
func New(repo *git.Repository, opts Options) *Reader {
	opts.setDefaults()
	return &Reader{repo: repo, opts: opts}
}

// Root returns the worktree directory, or the git directory for bare
// repositories.
func (r *Reader) Root() string { return r.root }

// GitDir returns the directory holding refs and objects.
func (r *Reader) GitDir() string { return r.gitDir }

// WatchDirs lists the directories whose changes can alter the log: the git
// directory itself (HEAD, packed-refs) and every directory under refs/.
func (r *Reader) WatchDirs() ([]string, error) {
	if r.gitDir == "" {
		return nil, nil
	}
	dirs := []string{r.gitDir}
	err := filepath.WalkDir(filepath.Join(r.gitDir, "refs"), func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			dirs = append(dirs, p)
		}
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeRepository, err, "list ref directories")
	}
	return dirs, nil
}

// Log returns the log text in wire format.
func (r *Reader) Log(ctx context.Context) (string, error) {
	commits, err := r.Commits(ctx)
	if err != nil {
		return "", err
	}
	return commitlog.FormatAll(commits), nil
}

// Commits walks every ref newest first and returns at most MaxEntries
// commits. An empty repository yields no commits and no error.
func (r *Reader) Commits(ctx context.Context) ([]commitlog.Commit, error) {
	decorations, tips, err := r.decorations()
	if err != nil {
		return nil, err
	}

	q := &commitQueue{}
	seen := make(map[plumbing.Hash]bool)
	push := func(h plumbing.Hash) {
		if seen[h] {
			return
		}
		seen[h] = true
		c, err := r.repo.CommitObject(h)
		if err != nil {
			r.opts.Logger.Debug("skipping unreadable commit", "hash", h.String(), "error", err)
			return
		}
		heap.Push(q, c)
	}
	for _, h := range tips {
		push(h)
	}

	now := r.opts.Now()
	var out []commitlog.Commit
	for q.Len() > 0 && len(out) < r.opts.MaxEntries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c := heap.Pop(q).(*object.Commit)
		out = append(out, toCommit(c, decorations[c.Hash], now))
		for _, p := range c.ParentHashes {
			push(p)
		}
	}
	r.opts.Logger.Debug("read repository log", "commits", len(out), "refs", len(tips))
	return out, nil
}

func toCommit(c *object.Commit, refs []string, now time.Time) commitlog.Commit {
	parents := make([]string, len(c.ParentHashes))
	for i, p := range c.ParentHashes {
		parents[i] = short(p)
	}
	subject, _, _ := strings.Cut(strings.TrimSpace(c.Message), "\n")
	if refs == nil {
		refs = []string{}
	}
	return commitlog.Commit{
		Hash:    short(c.Hash),
		Author:  c.Author.Name,
		Date:    humanize.RelTime(c.Author.When, now, "ago", "from now"),
		Message: strings.TrimSpace(subject),
		Refs:    refs,
		Parents: parents,
		IsStash: commitlog.DetectStash(subject, refs),
	}
}

func short(h plumbing.Hash) string {
	return h.String()[:shortHashLen]
}

// =============================================================================
// Ref decorations
// =============================================================================

// decoration ranks, in the order git prints them.
const (
	rankHead = iota
	rankTag
	rankBranch
	rankRemote
	rankOther
)

type decoration struct {
	rank int
	name string
}

// decorations maps commit hashes to their %d entries and returns the
// distinct commits that refs point at.
func (r *Reader) decorations() (map[plumbing.Hash][]string, []plumbing.Hash, error) {
	byHash := make(map[plumbing.Hash][]decoration)
	var tips []plumbing.Hash
	addTip := func(h plumbing.Hash) {
		if !slices.Contains(tips, h) {
			tips = append(tips, h)
		}
	}

	head, err := r.repo.Head()
	headBranch := ""
	switch {
	case err == nil && head.Name() == plumbing.HEAD:
		byHash[head.Hash()] = append(byHash[head.Hash()], decoration{rankHead, "HEAD"})
		addTip(head.Hash())
	case err == nil:
		headBranch = head.Name().String()
	case err == plumbing.ErrReferenceNotFound:
		// Unborn HEAD in an empty repository.
	default:
		return nil, nil, errors.Wrap(errors.ErrCodeRepository, err, "resolve HEAD")
	}

	refs, err := r.repo.References()
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeRepository, err, "list references")
	}
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		if ref.Type() != plumbing.HashReference || ref.Name() == plumbing.HEAD {
			return nil
		}
		h, ok := r.peel(ref.Hash())
		if !ok {
			return nil
		}
		d := decorate(ref.Name())
		if ref.Name().String() == headBranch {
			d = decoration{rankHead, "HEAD -> " + ref.Name().Short()}
		}
		byHash[h] = append(byHash[h], d)
		addTip(h)
		return nil
	})
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeRepository, err, "walk references")
	}

	out := make(map[plumbing.Hash][]string, len(byHash))
	for h, ds := range byHash {
		slices.SortFunc(ds, func(a, b decoration) int {
			if a.rank != b.rank {
				return a.rank - b.rank
			}
			return strings.Compare(a.name, b.name)
		})
		names := make([]string, len(ds))
		for i, d := range ds {
			names[i] = d.name
		}
		out[h] = names
	}
	return out, tips, nil
}

func decorate(name plumbing.ReferenceName) decoration {
	switch {
	case name.IsTag():
		return decoration{rankTag, "tag: " + name.Short()}
	case name.IsBranch():
		return decoration{rankBranch, name.Short()}
	case name.IsRemote():
		return decoration{rankRemote, name.Short()}
	default:
		return decoration{rankOther, name.String()}
	}
}

// peel resolves annotated tags to the commit they point at.
func (r *Reader) peel(h plumbing.Hash) (plumbing.Hash, bool) {
	for range 8 {
		tag, err := r.repo.TagObject(h)
		if err != nil {
			break
		}
		if tag.TargetType != plumbing.CommitObject && tag.TargetType != plumbing.TagObject {
			return plumbing.ZeroHash, false
		}
		h = tag.Target
	}
	if _, err := r.repo.CommitObject(h); err != nil {
		return plumbing.ZeroHash, false
	}
	return h, true
}

// =============================================================================
// Commit queue
// =============================================================================

// commitQueue is a max-heap on committer time. Ties break on hash so the
// order is deterministic.
type commitQueue []*object.Commit

func (q commitQueue) Len() int { return len(q) }

func (q commitQueue) Less(i, j int) bool {
	ti, tj := q[i].Committer.When, q[j].Committer.When
	if !ti.Equal(tj) {
		return ti.After(tj)
	}
	return q[i].Hash.String() < q[j].Hash.String()
}

func (q commitQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *commitQueue) Push(x any) { *q = append(*q, x.(*object.Commit)) }

func (q *commitQueue) Pop() any {
	old := *q
	c := old[len(old)-1]
	*q = old[:len(old)-1]
	return c
}
