package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/gammadia/schedeval/metrics"
	"github.com/rivo/uniseg"
	"gopkg.in/yaml.v3"
)

// Sentinel values are printed as these words, never as numbers.
const (
	UnboundedText = "unbounded (baseline had none)"
	UndefinedText = "undefined (no completed tasks)"
)

// Default variant names
const (
	DefaultCandidateName = "MLFQ"
	DefaultBaselineName  = "Round Robin"
)

const ruleWidth = 60

// Analysis is the comparison of two named scheduler variants.
type Analysis struct {
	CandidateName string             `yaml:"candidate-name"`
	BaselineName  string             `yaml:"baseline-name"`
	Comparison    metrics.Comparison `yaml:"comparison"`
}

// Text prints the metrics of both variants, then the four comparison figures.
func Text(w io.Writer, a Analysis) error {
	p := &printer{w: w}

	p.variant(a.CandidateName, a.Comparison.Candidate)
	p.line("")
	p.variant(a.BaselineName, a.Comparison.Baseline)
	p.line("")

	p.header(fmt.Sprintf("Performance Comparison (%s vs %s)", a.CandidateName, a.BaselineName))
	p.fields(0, [][2]string{
		{"Starvation reduction:", percent(a.Comparison.StarvationReduction)},
		{"SLA compliance improvement:", fmt.Sprintf("%.2f%% points", a.Comparison.SLADelta)},
		{"Wait time improvement:", percent(a.Comparison.WaitImprovement)},
		{"Turnaround time improvement:", percent(a.Comparison.TurnaroundImprovement)},
	})

	return p.err
}

// YAML writes the analysis as a structured document. Sentinels are written as their kind.
func YAML(w io.Writer, a Analysis) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(a); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return encoder.Close()
}

func percent(v metrics.Value) string {
	switch v.Kind() {
	case metrics.KindUnbounded:
		return color.HiYellowString(UnboundedText)
	case metrics.KindUndefined:
		return color.HiYellowString(UndefinedText)
	default:
		return v.String() + "%"
	}
}

func number(v metrics.Value) string {
	if v.Kind() == metrics.KindUndefined {
		return color.HiYellowString(UndefinedText)
	}
	return v.String()
}

// printer writes lines until the first error.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) line(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format+"\n", args...)
}

func (p *printer) header(title string) {
	rule := strings.Repeat("=", ruleWidth)
	p.line(rule)
	p.line("%s", color.HiCyanString(title))
	p.line(rule)
}

// fields prints label/value pairs with the values aligned.
func (p *printer) fields(indent int, fields [][2]string) {
	width := 0
	for _, f := range fields {
		width = max(width, uniseg.StringWidth(f[0]))
	}
	for _, f := range fields {
		p.line("%s%s %s", strings.Repeat(" ", indent), pad(f[0], width), f[1])
	}
}

func (p *printer) variant(name string, m metrics.DerivedMetrics) {
	p.header(name + " Scheduler Results:")
	p.fields(2, [][2]string{
		{"Total tasks processed:", fmt.Sprint(m.Total)},
		{"Completed tasks:", fmt.Sprint(m.Completed)},
		{"Missed deadlines:", fmt.Sprint(m.Missed)},
		{"Starved tasks:", fmt.Sprint(m.Starved)},
		{"SLA compliance:", fmt.Sprintf("%.2f%%", m.SLACompliance)},
		{"Average wait time:", fmt.Sprintf("%.2f", m.AvgWait)},
		{"Average turnaround time:", number(m.AvgTurnaround)},
	})
}

func spaces(n int) string {
	return strings.Repeat(" ", max(n, 0))
}

// pad right-pads s with spaces to the given display width. s must not be colored yet.
func pad(s string, width int) string {
	return s + spaces(width-uniseg.StringWidth(s))
}
