// Package hook renders orchestration results for the direnv shell integration.
package hook

import (
	"bytes"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/envcache/internal/core/domain"
	"go.trai.ch/envcache/internal/core/ports"
	"go.trai.ch/envcache/internal/ui/output"
	"go.trai.ch/envcache/internal/ui/style"
)

var _ ports.HookRenderer = (*Renderer)(nil)

// excludedPrefixes name session variables that are never exported.
var excludedPrefixes = []string{"DIRENV_", "SSH_"}

// Renderer implements ports.HookRenderer for bash.
type Renderer struct{}

// NewRenderer creates a new Renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// Exportable reports whether a variable may appear in the hook script.
func Exportable(name string) bool {
	if !ValidName(name) {
		return false
	}
	for _, prefix := range excludedPrefixes {
		if strings.HasPrefix(name, prefix) {
			return false
		}
	}
	return true
}

// Render writes the bash script for res. The whole script is built first and
// written with a single call, wrapped in braces so bash evaluates nothing
// until the closing brace has arrived.
func (r *Renderer) Render(w io.Writer, cfg *domain.Config, res *domain.Result) error {
	var buf bytes.Buffer

	buf.WriteString("{ # Start.\n\n")

	fmt.Fprintf(&buf, "### Environment %s (%s).\n", res.Fingerprint, res.Outcome)
	if res.Snapshot != nil {
		for _, name := range res.Snapshot.Names() {
			if Exportable(name) {
				fmt.Fprintf(&buf, "export %s=%s\n", name, Quote(res.Snapshot.Variables[name]))
			}
		}
		for _, name := range res.Snapshot.Unset {
			if Exportable(name) {
				fmt.Fprintf(&buf, "unset %s\n", name)
			}
		}
	}
	buf.WriteByte('\n')

	buf.WriteString("### Watch dependencies.\n")
	buf.WriteString("watch_file")
	for _, path := range watches(cfg, res) {
		buf.WriteString(" \\\n  ")
		buf.WriteString(Quote(path))
	}
	buf.WriteString("\n\n")

	buf.WriteString("} # End.\n")

	_, err := w.Write(buf.Bytes())
	return err
}

// watches lists the watch list followed by the files that define how the
// environment is built, without duplicates.
func watches(cfg *domain.Config, res *domain.Result) []string {
	list := domain.NewWatchList(res.WatchList.Paths()...)
	for _, extra := range cfg.ExtraWatches() {
		list.Add(extra)
	}
	return list.Paths()
}

// Status writes the one-line summary of res, followed by the getting started
// hint after a rebuild.
func (r *Renderer) Status(w io.Writer, cfg *domain.Config, res *domain.Result) error {
	rd := renderer(w)
	ok := rd.NewStyle().Foreground(style.Green)
	dim := rd.NewStyle().Foreground(style.Slate)

	line := fmt.Sprintf("%s %s %s %s\n",
		style.Prefix,
		ok.Render(style.Check+" "+res.Outcome.String()),
		dim.Render("("+res.Fingerprint.Short()+")"),
		dim.Render(summary(res.Snapshot)),
	)
	if res.Outcome == domain.OutcomeRebuilt && cfg.GettingStarted != "" {
		line += fmt.Sprintf("%s %s %s\n", style.Prefix, style.Arrow, cfg.GettingStarted)
	}

	_, err := io.WriteString(w, line)
	return err
}

// Failure writes the categorized one-line error for err.
func (r *Renderer) Failure(w io.Writer, err error) error {
	bad := renderer(w).NewStyle().Foreground(style.Red)
	_, werr := fmt.Fprintf(w, "%s %s\n", style.Prefix, bad.Render(style.Cross+" "+domain.Describe(err)))
	return werr
}

func summary(snap *domain.Snapshot) string {
	if snap == nil {
		return "no changes"
	}
	set := slices.DeleteFunc(snap.Names(), func(n string) bool { return !Exportable(n) })
	unset := slices.DeleteFunc(slices.Clone(snap.Unset), func(n string) bool { return !Exportable(n) })
	return fmt.Sprintf("%d set, %d unset", len(set), len(unset))
}

func renderer(w io.Writer) *lipgloss.Renderer {
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(output.ColorProfile(w))
	return r
}
