package artlife

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// CycleReport summarizes one evolution cycle.
type CycleReport struct {
	Cycle       int           // evolution cycles run so far, including rolled back ones
	Generation  int           // accepted cycles, after this one
	Phase       Phase         // operator applied in this cycle
	Ticks       int           // ticks the epoch lasted
	MaxFitness  float64       // best reward of the epoch
	MeanFitness float64       // mean reward of the epoch
	BestFitness float64       // best-known reward after this cycle
	RolledBack  bool          // the epoch did worse than the best-known snapshot
	Dead        int           // agents that ended the epoch dead
	Winners     int           // agents that reached the goal
	WinnerPath  string        // where the winner archive was stored, if any
	WinnerErr   error         // persistence or notification failure for the winner archive
	Stagnation  int           // cycles since the best-known reward last improved
	Diversity   float64       // mean share of genes that differ from the elite
	Duration    time.Duration // wall time of the epoch and the cycle
	Finished    bool          // a winner was found and the run should stop
}

// Reporter receives a report after every evolution cycle.
type Reporter interface {
	CycleCompleted(report CycleReport)
}

// ReporterSet fans a report out to several reporters.
type ReporterSet struct {
	reporters []Reporter
}

// Add registers a reporter. Nil reporters are ignored.
func (rs *ReporterSet) Add(r Reporter) {
	if r != nil {
		rs.reporters = append(rs.reporters, r)
	}
}

// Len is the number of registered reporters.
func (rs *ReporterSet) Len() int {
	return len(rs.reporters)
}

// CycleCompleted forwards the report to every registered reporter, in order.
func (rs *ReporterSet) CycleCompleted(report CycleReport) {
	for _, r := range rs.reporters {
		r.CycleCompleted(report)
	}
}

var (
	generationStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ffff"))
	rollbackStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffaa00"))
	acceptStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff88"))
	winnerStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff00ff"))
	subtleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#666688"))
)

// ConsoleReporter prints one styled line per cycle.
type ConsoleReporter struct {
	Out io.Writer
}

// NewConsoleReporter creates a console reporter writing to out.
func NewConsoleReporter(out io.Writer) *ConsoleReporter {
	return &ConsoleReporter{Out: out}
}

// CycleCompleted prints the cycle line, plus a winner line when agents reached the goal.
func (c *ConsoleReporter) CycleCompleted(r CycleReport) {
	verdict := acceptStyle.Render("accepted")
	if r.RolledBack {
		verdict = rollbackStyle.Render("rolled back")
	}
	line := fmt.Sprintf("%s %s  max %.3f  mean %.3f  best %.3f  dead %d  diversity %.2f  stagnation %d  %s",
		generationStyle.Render(fmt.Sprintf("gen %4d", r.Generation)),
		verdict,
		r.MaxFitness, r.MeanFitness, r.BestFitness, r.Dead, r.Diversity, r.Stagnation,
		subtleStyle.Render(fmt.Sprintf("%s, %d ticks, %s", r.Phase, r.Ticks, r.Duration.Round(time.Millisecond))),
	)
	fmt.Fprintln(c.Out, line)
	if r.Winners > 0 {
		msg := fmt.Sprintf("%d winner(s) reached the goal", r.Winners)
		if r.WinnerPath != "" {
			msg += ", saved to " + r.WinnerPath
		}
		if r.WinnerErr != nil {
			msg += fmt.Sprintf(" (%v)", r.WinnerErr)
		}
		fmt.Fprintln(c.Out, winnerStyle.Render(msg))
	}
}
