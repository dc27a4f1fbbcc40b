// Package report renders run results, the ledger and preflight findings as
// terminal text.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/felixgeelhaar/aistack/internal/domain/execution"
	"github.com/felixgeelhaar/aistack/internal/domain/install"
	"github.com/felixgeelhaar/aistack/internal/domain/ledger"
	"github.com/felixgeelhaar/aistack/internal/domain/preflight"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	colorSuccess = lipgloss.AdaptiveColor{Light: "#40a02b", Dark: "#a6e3a1"}
	colorWarning = lipgloss.AdaptiveColor{Light: "#df8e1d", Dark: "#f9e2af"}
	colorError   = lipgloss.AdaptiveColor{Light: "#d20f39", Dark: "#f38ba8"}
	colorMuted   = lipgloss.AdaptiveColor{Light: "#6c6f85", Dark: "#6c7086"}
	colorPrimary = lipgloss.AdaptiveColor{Light: "#1e66f5", Dark: "#89b4fa"}
)

type styles struct {
	title   lipgloss.Style
	heading lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
	err     lipgloss.Style
	muted   lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		title:   r.NewStyle().Bold(true).Foreground(colorPrimary),
		heading: r.NewStyle().Bold(true),
		success: r.NewStyle().Foreground(colorSuccess),
		warning: r.NewStyle().Foreground(colorWarning),
		err:     r.NewStyle().Foreground(colorError),
		muted:   r.NewStyle().Foreground(colorMuted),
	}
}

// Reporter renders installer output with a fixed lipgloss renderer.
type Reporter struct {
	styles styles
	title  cases.Caser
}

// New creates a Reporter. A nil renderer uses the lipgloss default.
func New(r *lipgloss.Renderer) *Reporter {
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}
	return &Reporter{
		styles: newStyles(r),
		title:  cases.Title(language.English),
	}
}

// Render renders a run result with the default renderer.
func Render(res execution.Result) string {
	return New(nil).Render(res)
}

// RenderLedger renders the ledger with the default renderer.
func RenderLedger(steps []install.Step, entries map[string]ledger.Entry) string {
	return New(nil).RenderLedger(steps, entries)
}

// label title-cases a status word, e.g. "not-run" becomes "Not-Run".
func (p *Reporter) label(s string) string {
	return p.title.String(s)
}

func (p *Reporter) outcomeStyle(o execution.Outcome) (string, lipgloss.Style) {
	switch o {
	case execution.OutcomeSucceeded:
		return "✓", p.styles.success
	case execution.OutcomeFailed:
		return "✗", p.styles.err
	case execution.OutcomeRolledBack:
		return "↺", p.styles.warning
	case execution.OutcomePlanned:
		return "→", p.styles.warning
	case execution.OutcomeSkipped:
		return "-", p.styles.muted
	default:
		return "·", p.styles.muted
	}
}

func (p *Reporter) overallStyle(o execution.Overall) lipgloss.Style {
	switch o {
	case execution.OverallComplete:
		return p.styles.success
	case execution.OverallPartial:
		return p.styles.warning
	default:
		return p.styles.err
	}
}

// Render lists every step once in registry order with its final outcome,
// followed by rollbacks, follow-up actions and the halting error.
func (p *Reporter) Render(res execution.Result) string {
	var b strings.Builder

	heading := "aistack install"
	if res.DryRun {
		heading += " (dry run)"
	}
	fmt.Fprintf(&b, "%s: %s\n", p.styles.title.Render(heading), p.overallStyle(res.Overall).Render(p.label(string(res.Overall))))
	fmt.Fprintf(&b, "%s\n", p.styles.muted.Render(fmt.Sprintf("Run ID: %s  Duration: %s", res.RunID, res.Duration().Round(time.Second))))
	b.WriteString("\n")

	width := 0
	for _, s := range res.Steps {
		width = max(width, len(s.Step))
	}
	labelWidth := len("Rolled-Back")

	for _, s := range res.Steps {
		icon, style := p.outcomeStyle(s.Outcome)
		label := fmt.Sprintf("%-*s", labelWidth, p.label(string(s.Outcome)))
		line := fmt.Sprintf("  %s %-*s  %s", style.Render(icon), width, s.Step, style.Render(label))

		switch {
		case s.Err != nil:
			line += "  " + p.styles.err.Render(s.Err.Error())
		case s.Outcome == execution.OutcomeSucceeded && s.Attempts > 1:
			line += "  " + p.styles.muted.Render(fmt.Sprintf("after %d attempts", s.Attempts))
		case s.Reason != "" && s.Outcome != execution.OutcomeNotRun:
			line += "  " + p.styles.muted.Render(s.Reason)
		}
		b.WriteString(strings.TrimRight(line, " ") + "\n")
	}

	b.WriteString("\n" + p.counts(res) + "\n")

	if len(res.Rollbacks) > 0 {
		b.WriteString("\n" + p.styles.heading.Render("Rollback") + "\n")
		for _, rb := range res.Rollbacks {
			switch {
			case rb.Skipped:
				fmt.Fprintf(&b, "  - %s  %s\n", rb.Step, p.styles.muted.Render("no undo available"))
			case rb.Success:
				fmt.Fprintf(&b, "  %s %s  %s\n", p.styles.success.Render("✓"), rb.Step, "undone")
			default:
				fmt.Fprintf(&b, "  %s %s  %s\n", p.styles.err.Render("✗"), rb.Step, p.styles.err.Render(rb.Err.Error()))
			}
		}
	}

	if followUps := res.FollowUps(); len(followUps) > 0 && !res.DryRun {
		b.WriteString("\n" + p.styles.heading.Render("Next steps") + "\n")
		for _, f := range followUps {
			fmt.Fprintf(&b, "  • %s\n", f)
		}
	}

	if res.Err != nil {
		b.WriteString("\n" + p.styles.err.Render("Error: "+res.Err.Error()) + "\n")
	}
	if res.Overall == execution.OverallAborted {
		b.WriteString(p.styles.muted.Render("Fix the problem and run aistack again; completed steps will be skipped.") + "\n")
	}

	return b.String()
}

var outcomeOrder = []execution.Outcome{
	execution.OutcomeSucceeded,
	execution.OutcomeFailed,
	execution.OutcomeSkipped,
	execution.OutcomePlanned,
	execution.OutcomeRolledBack,
	execution.OutcomeNotRun,
}

func (p *Reporter) counts(res execution.Result) string {
	counts := res.Counts()
	var parts []string
	for _, o := range outcomeOrder {
		if n := counts[o]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, o))
		}
	}
	if len(parts) == 0 {
		return p.styles.muted.Render("No steps registered.")
	}
	return strings.Join(parts, ", ")
}

func (p *Reporter) statusStyle(s ledger.Status) lipgloss.Style {
	switch s {
	case ledger.StatusSucceeded:
		return p.styles.success
	case ledger.StatusFailed:
		return p.styles.err
	case ledger.StatusRunning:
		return p.styles.warning
	default:
		return p.styles.muted
	}
}

// RenderLedger shows the recorded status of every registered step, then any
// ledger entries for steps no longer registered.
func (p *Reporter) RenderLedger(steps []install.Step, entries map[string]ledger.Entry) string {
	var b strings.Builder
	b.WriteString(p.styles.title.Render("aistack status") + "\n\n")

	known := make(map[string]bool, len(steps))
	width := 0
	for _, s := range steps {
		known[s.Name] = true
		width = max(width, len(s.Name))
	}
	var stale []string
	for name := range entries {
		if !known[name] {
			stale = append(stale, name)
			width = max(width, len(name))
		}
	}
	sort.Strings(stale)

	done := 0
	line := func(name string, e ledger.Entry, ok bool) {
		status := ledger.StatusPending
		if ok && e.Status.Valid() {
			status = e.Status
		}
		if status == ledger.StatusSucceeded {
			done++
		}
		style := p.statusStyle(status)
		row := fmt.Sprintf("  %-*s  %s", width, name, style.Render(fmt.Sprintf("%-9s", p.label(string(status)))))
		if ok && !e.Timestamp.IsZero() {
			row += "  " + p.styles.muted.Render(e.Timestamp.UTC().Format("2006-01-02 15:04:05Z"))
		}
		if ok && e.Attempts > 1 {
			row += "  " + p.styles.muted.Render(fmt.Sprintf("%d attempts", e.Attempts))
		}
		if ok && e.Error != "" {
			row += "  " + p.styles.err.Render(e.Error)
		}
		b.WriteString(row + "\n")
	}

	for _, s := range steps {
		e, ok := entries[s.Name]
		line(s.Name, e, ok)
	}
	fmt.Fprintf(&b, "\n%d/%d steps succeeded\n", done, len(steps))

	if len(stale) > 0 {
		b.WriteString("\n" + p.styles.heading.Render("Not in the current configuration") + "\n")
		for _, name := range stale {
			e := entries[name]
			fmt.Fprintf(&b, "  %-*s  %s\n", width, name, p.statusStyle(e.Status).Render(p.label(string(e.Status))))
		}
	}

	if len(entries) == 0 {
		b.WriteString(p.styles.muted.Render("No installation recorded yet. Run aistack to install.") + "\n")
	}
	return b.String()
}

// RenderPreflight summarises the host and lists advisories.
func (p *Reporter) RenderPreflight(rep preflight.Report) string {
	var b strings.Builder
	host := rep.Release.String()
	if rep.Platform != nil {
		host += " (" + rep.Platform.String() + ")"
	}
	fmt.Fprintf(&b, "%s %s\n", p.styles.success.Render("✓"), "Preflight passed: "+host)

	for _, a := range rep.Advisories {
		style, icon := p.styles.muted, "i"
		if a.Severity == preflight.SeverityWarning {
			style, icon = p.styles.warning, "!"
		}
		fmt.Fprintf(&b, "  %s %s: %s\n", style.Render(icon), a.Check, a.Message)
		if a.Suggestion != "" {
			fmt.Fprintf(&b, "    %s\n", p.styles.muted.Render(a.Suggestion))
		}
	}
	return b.String()
}
