package cli

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/gitmorph/pkg/animation"
	"github.com/matzehuels/gitmorph/pkg/commitlog"
	"github.com/matzehuels/gitmorph/pkg/errors"
	"github.com/matzehuels/gitmorph/pkg/graph"
	"github.com/matzehuels/gitmorph/pkg/render/term"
	"github.com/matzehuels/gitmorph/pkg/session"
)

const (
	animateFPS     = 30
	chromeRows     = 4 // header, blank, blank, footer
	defaultCols    = 80
	defaultRows    = 24
	defaultDropped = 1
)

// animateCommand plays a before/after loop in the terminal.
func (c *CLI) animateCommand() *cobra.Command {
	var (
		in         inputFlags
		viewport   viewportFlags
		drop       int
		duration   time.Duration
		beforeHold time.Duration
		afterHold  time.Duration
		highlight  string
		printOnly  bool
	)

	cmd := &cobra.Command{
		Use:   "animate [after.txt | before.txt after.txt]",
		Short: "Animate the change between two commit logs in the terminal",
		Long: `Loop between two histories: show the before state, morph to the after
state, hold, and start over.

With two files the first is the before state. With one log (a file, stdin,
--repo or --sample) the before state is the same log without its newest
--drop commits, so the animation shows them being made.

Keys: space pauses and resumes, r restarts, q quits.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			beforeText, afterText, err := c.animationLogs(ctx, cmd, in, args, drop)
			if err != nil {
				return err
			}
			if highlight != "" {
				if err := errors.ValidateHash(highlight); err != nil {
					return err
				}
			}

			runner, err := c.newRunner(false)
			if err != nil {
				return err
			}
			defer runner.Close()

			opts := c.viewportOptions(viewport)
			before, _, err := runner.Layout(ctx, beforeText, opts)
			if err != nil {
				return fmt.Errorf("before log: %w", err)
			}
			after, warnings, err := runner.Layout(ctx, afterText, opts)
			if err != nil {
				return fmt.Errorf("after log: %w", err)
			}
			printWarnings(cmd.ErrOrStderr(), warnings)

			canvas := term.New(defaultCols, defaultRows-chromeRows, nil)
			canvas.Highlight = highlight
			bounds := unionBounds(before, after)
			if printOnly {
				return printFrames(cmd, canvas, bounds, before, after)
			}

			frames := &frameStore{}
			player := animation.NewPlayer(animation.ClockScheduler{}, frames.set)
			player.Duration = duration
			sess := session.New(player, session.Options{
				Policy:   session.PolicyReplace,
				Layouter: runner.Layouter(opts),
				Logger:   c.Logger,
			})
			loop := session.NewLoop(sess, before, after, nil)
			loop.BeforeHold, loop.AfterHold = beforeHold, afterHold

			m := &animateModel{
				title:   c.Config.ProjectName,
				loop:    loop,
				session: sess,
				frames:  frames,
				canvas:  canvas,
				bounds:  bounds,
			}
			loop.Start()
			defer loop.Stop()

			prog := tea.NewProgram(m,
				tea.WithAltScreen(),
				tea.WithContext(ctx),
				tea.WithInput(cmd.InOrStdin()),
				tea.WithOutput(cmd.OutOrStdout()))
			_, err = prog.Run()
			return err
		},
	}

	in.register(cmd)
	viewport.register(cmd)
	cmd.Flags().IntVar(&drop, "drop", defaultDropped, "with one log, how many newest commits the before state lacks")
	cmd.Flags().DurationVar(&duration, "duration", animation.DefaultDuration, "length of one transition")
	cmd.Flags().DurationVar(&beforeHold, "hold-before", session.DefaultBeforeHold, "how long the before state is shown")
	cmd.Flags().DurationVar(&afterHold, "hold-after", session.DefaultAfterHold, "how long the after state is shown")
	cmd.Flags().StringVar(&highlight, "highlight", "", "emphasise this commit and its neighbours")
	cmd.Flags().BoolVar(&printOnly, "print", false, "print the before and after states instead of animating")
	return cmd
}

// animationLogs returns the before and after log text.
func (c *CLI) animationLogs(ctx context.Context, cmd *cobra.Command, in inputFlags, args []string, drop int) (string, string, error) {
	if len(args) == 2 {
		if args[0] == "-" && args[1] == "-" {
			return "", "", errors.New(errors.ErrCodeInvalidInput, "only one log can be read from stdin")
		}
		before, err := readFile(cmd.InOrStdin(), args[0])
		if err != nil {
			return "", "", err
		}
		after, err := readFile(cmd.InOrStdin(), args[1])
		return before, after, err
	}
	after, err := c.readLog(ctx, cmd, in, args)
	if err != nil {
		return "", "", err
	}
	before, err := dropNewest(after, drop)
	return before, after, err
}

// dropNewest removes the first n commits of a log. At least one commit
// must remain.
func dropNewest(text string, n int) (string, error) {
	commits, err := commitlog.Parse(text)
	if err != nil {
		return "", err
	}
	if n < 1 || n >= len(commits) {
		return "", errors.New(errors.ErrCodeInvalidInput,
			"--drop must be between 1 and %d for a log of %d commits", len(commits)-1, len(commits))
	}
	return commitlog.FormatAll(commits[n:]), nil
}

// unionBounds returns the bounding box of both snapshots so the view does
// not rescale while morphing.
func unionBounds(a, b *graph.Snapshot) *[2]graph.Point {
	var out *[2]graph.Point
	for _, s := range []*graph.Snapshot{a, b} {
		lo, hi, ok := s.Bounds()
		if !ok {
			continue
		}
		if out == nil {
			out = &[2]graph.Point{lo, hi}
			continue
		}
		out[0].X, out[0].Y = min(out[0].X, lo.X), min(out[0].Y, lo.Y)
		out[1].X, out[1].Y = max(out[1].X, hi.X), max(out[1].Y, hi.Y)
	}
	return out
}

func printFrames(cmd *cobra.Command, canvas *term.Canvas, bounds *[2]graph.Point, before, after *graph.Snapshot) error {
	w := cmd.OutOrStdout()
	for _, step := range []struct {
		name string
		snap *graph.Snapshot
	}{{"before", before}, {"after", after}} {
		canvas.Draw(animation.Still(step.snap), bounds)
		fmt.Fprintf(w, "%s (%d commits)\n%s\n", step.name, step.snap.Len(), canvas.Plain())
	}
	return nil
}

// =============================================================================
// Frame store
// =============================================================================

// frameStore keeps the newest frame emitted by the player.
type frameStore struct {
	mu    sync.Mutex
	frame animation.Frame
}

func (s *frameStore) set(f animation.Frame) {
	s.mu.Lock()
	s.frame = f
	s.mu.Unlock()
}

func (s *frameStore) get() animation.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame
}

// =============================================================================
// animateModel - bubbletea model
// =============================================================================

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/animateFPS, func(t time.Time) tea.Msg { return tickMsg(t) })
}

type animateModel struct {
	title   string
	loop    *session.Loop
	session *session.Session
	frames  *frameStore
	canvas  *term.Canvas
	bounds  *[2]graph.Point
}

func (m *animateModel) Init() tea.Cmd {
	return tick()
}

func (m *animateModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.loop.Stop()
			return m, tea.Quit
		case " ", "p":
			if m.loop.Phase() == session.PhasePaused {
				m.loop.Resume()
			} else {
				m.loop.Pause()
			}
		case "r":
			m.loop.Start()
		}
	case tea.WindowSizeMsg:
		m.canvas.Resize(msg.Width, msg.Height-chromeRows)
	case tickMsg:
		return m, tick()
	}
	return m, nil
}

// frame returns what the session shows right now: the player's latest frame
// while a transition is in flight, the settled snapshot otherwise.
func (m *animateModel) frame() animation.Frame {
	if m.session.InFlight() != nil {
		return m.frames.get()
	}
	if cur := m.session.Current(); cur != nil {
		return animation.Still(cur)
	}
	return animation.Frame{}
}

var phaseStyles = map[session.LoopPhase]lipgloss.Style{
	session.PhaseBefore:   styleDim,
	session.PhaseMorphing: styleTitle,
	session.PhaseAfter:    styleEntering,
	session.PhasePaused:   styleWarning,
	session.PhaseStopped:  styleDim,
}

func (m *animateModel) View() string {
	phase := m.loop.Phase()
	var b strings.Builder
	b.WriteString(styleTitle.Render(m.title))
	b.WriteString(styleDim.Render("  ·  "))
	b.WriteString(phaseStyles[phase].Render(string(phase)))
	b.WriteString(styleDim.Render(fmt.Sprintf("  ·  round %d", m.loop.Rounds()+1)))
	b.WriteString("\n\n")
	b.WriteString(m.canvas.Draw(m.frame(), m.bounds))
	b.WriteString("\n\n")
	b.WriteString(styleDim.Render("space pause/resume  r restart  q quit"))
	return b.String()
}
