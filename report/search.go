package report

import (
	"fmt"
	"io"
	"math"

	"github.com/fatih/color"
	"github.com/gammadia/schedeval/search"
	"github.com/rivo/uniseg"
	"github.com/samber/lo"
)

// NoImprovementText is printed when no trial scored above zero.
const NoImprovementText = "no improving configuration found"

// Search prints one line per trial, then the best configuration.
func Search(w io.Writer, summary search.Summary) error {
	p := &printer{w: w}

	rows := lo.Map(summary.Trials, func(r search.Result, _ int) []cell {
		return []cell{plain(r.Trial.ID.String()), plain(r.Trial.Configuration.String()), outcome(r), plain(score(r))}
	})
	p.table([]string{"TRIAL", "CONFIGURATION", "OUTCOME", "SCORE"}, rows)
	p.line("")

	p.line("Trials: %d scored, %d skipped, %d failed",
		summary.Count(search.OutcomeScored),
		summary.Count(search.OutcomeSkipped),
		summary.Count(search.OutcomeFailed),
	)
	if summary.Err != nil {
		p.line("%s", color.HiYellowString("Search interrupted: %s", summary.Err))
	}

	if !summary.Best.Found() {
		p.line("%s", NoImprovementText)
		return p.err
	}

	best := summary.Best.Result
	p.line("Best configuration: %s", color.HiGreenString(best.Trial.Configuration.String()))
	fields := [][2]string{
		{"Trial:", best.Trial.ID.String()},
		{"Score:", FormatScore(best.Score)},
	}
	if c := best.Comparison; c != nil {
		fields = append(fields,
			[2]string{"Starvation reduction:", percent(c.StarvationReduction)},
			[2]string{"SLA compliance delta:", fmt.Sprintf("%.2f%% points", c.SLADelta)},
		)
	}
	p.fields(2, fields)
	return p.err
}

// cell is a table cell, colored once padded.
type cell struct {
	text  string
	color *color.Color
}

func plain(text string) cell {
	return cell{text: text}
}

func (c cell) paint(s string) string {
	if c.color == nil {
		return s
	}
	return c.color.Sprint(s)
}

func outcome(r search.Result) cell {
	switch o := r.Outcome(); o {
	case search.OutcomeScored:
		return plain(o)
	case search.OutcomeSkipped:
		return cell{o, color.New(color.FgHiYellow)}
	default:
		return cell{o, color.New(color.FgHiRed)}
	}
}

func score(r search.Result) string {
	if r.Err != nil {
		return "-"
	}
	return FormatScore(r.Score)
}

// FormatScore prints a trial score, "unbounded" for +Inf and "-" for failed trials.
func FormatScore(s float64) string {
	switch {
	case math.IsInf(s, 1):
		return "unbounded"
	case math.IsInf(s, -1) || math.IsNaN(s):
		return "-"
	default:
		return fmt.Sprintf("%.2f", s)
	}
}

// table prints rows in columns aligned on their display width.
func (p *printer) table(headers []string, rows [][]cell) {
	widths := lo.Map(headers, func(h string, i int) int {
		return lo.Max(append(lo.Map(rows, func(row []cell, _ int) int {
			return uniseg.StringWidth(row[i].text)
		}), uniseg.StringWidth(h)))
	})

	printRow := func(cells []cell) {
		line := ""
		for i, c := range cells {
			if i < len(cells)-1 {
				line += c.paint(c.text) + spaces(widths[i]-uniseg.StringWidth(c.text)+2)
			} else {
				line += c.paint(c.text)
			}
		}
		p.line("%s", line)
	}

	printRow(lo.Map(headers, func(h string, _ int) cell { return plain(h) }))
	for _, row := range rows {
		printRow(row)
	}
}
