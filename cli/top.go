package main

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gammadia/schedeval/report"
	"github.com/gammadia/schedeval/search"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/samber/lo"
)

// trialView is one row of the trials table.
type trialView struct {
	trial    search.Trial
	state    search.State
	outcome  string
	score    float64
	err      error
	started  time.Time
	finished time.Time
}

func (t *trialView) elapsed(now time.Time) time.Duration {
	if t.finished.IsZero() {
		return now.Sub(t.started)
	}
	return t.finished.Sub(t.started)
}

// topModel accumulates the search events. It is written by the search goroutine and read by
// the tview event loop.
type topModel struct {
	sync.Mutex

	total   int
	trials  []*trialView
	best    *trialView
	started time.Time
	done    bool
}

func newTopModel(total int) *topModel {
	return &topModel{total: total, started: time.Now()}
}

func (m *topModel) onEvent(event search.Event) {
	m.apply(event, time.Now())
}

func (m *topModel) apply(event search.Event, now time.Time) {
	m.Lock()
	defer m.Unlock()

	switch e := event.(type) {
	case search.EventTrialStarted:
		m.trials = append(m.trials, &trialView{trial: e.Trial, state: search.StateIdle, started: now})
	case search.EventStateChanged:
		if e.State == search.StateDone {
			m.done = true
		} else if t := m.find(e.Trial); t != nil && t.outcome == "" {
			t.state = e.State
		}
	case search.EventTrialScored:
		m.finish(e.Trial, search.OutcomeScored, nil, now).score = e.Score
	case search.EventTrialSkipped:
		m.finish(e.Trial, search.OutcomeSkipped, e.Err, now)
	case search.EventTrialFailed:
		m.finish(e.Trial, search.OutcomeFailed, e.Err, now)
	case search.EventBestImproved:
		m.best = m.find(e.Trial)
	case search.EventSearchDone:
		m.done = true
	}
}

func (m *topModel) find(trial search.Trial) *trialView {
	return lo.FindOrElse(m.trials, nil, func(t *trialView) bool {
		return t.trial.ID == trial.ID
	})
}

func (m *topModel) finish(trial search.Trial, outcome string, err error, now time.Time) *trialView {
	t := m.find(trial)
	if t == nil {
		t = &trialView{trial: trial, started: now}
		m.trials = append(m.trials, t)
	}
	t.outcome, t.err, t.finished = outcome, err, now
	return t
}

// dashboard draws a topModel until the search is done or the user quits.
type dashboard struct {
	model *topModel

	app    *tview.Application
	layout *tview.Flex
	header *tview.TextView
	table  *tview.Table
}

func newDashboard(model *topModel) *dashboard {
	d := &dashboard{model: model, app: tview.NewApplication()}

	d.header = tview.NewTextView().
		SetDynamicColors(true).
		SetWordWrap(true).
		SetTextAlign(tview.AlignLeft)
	d.header.SetBorder(true).SetTitle(" schedeval ")

	d.table = tview.NewTable().
		SetFixed(1, 0).
		SetSelectable(true, false)
	d.table.SetBorder(true).SetTitle(" Trials ")

	d.layout = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(d.header, 5, 0, false).
		AddItem(d.table, 0, 1, true)

	return d
}

// run starts the search once the dashboard is drawn and returns its summary. Quitting
// cancels the search and waits for the current trial to wind down.
func (d *dashboard) run(ctx context.Context, run func(context.Context) search.Summary) (search.Summary, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var summary search.Summary
	finished := make(chan struct{})
	var once sync.Once
	start := func() {
		go func() {
			defer close(finished)
			summary = run(ctx)
			d.app.Stop()
		}()
	}

	d.app.SetAfterDrawFunc(func(tcell.Screen) {
		once.Do(start)
	})
	d.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Rune() == 'q' {
			cancel()
			d.app.Stop()
			return nil
		}
		return event
	})

	// done is closed when the app stops, to signal the ticker to exit.
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(250 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				d.app.QueueUpdateDraw(d.render)
			}
		}
	}()

	d.render()
	err := d.app.SetRoot(d.layout, true).Run()
	close(done)
	cancel()

	started := true
	once.Do(func() { started = false })
	if !started {
		return search.Summary{}, err
	}
	<-finished
	return summary, err
}

func (d *dashboard) render() {
	d.model.Lock()
	defer d.model.Unlock()
	now := time.Now()

	d.header.Clear()
	fmt.Fprintf(d.header, " Search: %s  |  Trials: %s  |  Elapsed: [green]%s[white]\n",
		lo.Ternary(d.model.done, "[green]done[white]", "[yellow]running[white]"),
		trialProgress(d.model.trials, d.model.total), formatDuration(now.Sub(d.model.started)))
	if d.model.best != nil {
		fmt.Fprintf(d.header, " Best: [green]%s[white] (%s)  |  Score: [green]%s[white]",
			d.model.best.trial.Configuration, d.model.best.trial.ID, report.FormatScore(d.model.best.score))
	} else {
		fmt.Fprintf(d.header, " Best: [gray]%s[white]", report.NoImprovementText)
	}

	d.table.Clear()
	d.table.SetTitle(fmt.Sprintf(" Trials: %d/%d ", len(d.model.trials), d.model.total))
	for col, title := range []string{"TRIAL", "CONFIGURATION", "STATE", "ELAPSED", "SCORE"} {
		d.table.SetCell(0, col, tview.NewTableCell(title).
			SetTextColor(tcell.ColorYellow).
			SetSelectable(false).
			SetExpansion(1))
	}

	// Latest trial first
	for row, t := range lo.Reverse(append([]*trialView(nil), d.model.trials...)) {
		nameColor := tcell.ColorAqua
		if t == d.model.best {
			nameColor = tcell.ColorGreen
		}
		d.table.SetCell(row+1, 0, tview.NewTableCell(string(t.trial.ID)).
			SetTextColor(nameColor).
			SetExpansion(1))

		d.table.SetCell(row+1, 1, tview.NewTableCell(t.trial.Configuration.String()).
			SetTextColor(tcell.ColorWhite).
			SetExpansion(2))

		d.table.SetCell(row+1, 2, tview.NewTableCell(trialState(t)).
			SetTextColor(outcomeColor(t.outcome)).
			SetExpansion(2))

		d.table.SetCell(row+1, 3, tview.NewTableCell(formatDuration(t.elapsed(now))).
			SetTextColor(lo.Ternary(t.outcome == "", tcell.ColorWhite, tcell.ColorGray)).
			SetExpansion(1))

		score := ""
		if t.outcome == search.OutcomeScored {
			score = report.FormatScore(t.score)
		}
		d.table.SetCell(row+1, 4, tview.NewTableCell(score).
			SetTextColor(tcell.ColorWhite).
			SetExpansion(1))
	}
}

func trialState(t *trialView) string {
	switch {
	case t.outcome == "":
		return string(t.state)
	case t.err != nil:
		return fmt.Sprintf("%s: %s", t.outcome, t.err)
	default:
		return t.outcome
	}
}

func outcomeColor(outcome string) tcell.Color {
	switch outcome {
	case "":
		return tcell.ColorYellow
	case search.OutcomeScored:
		return tcell.ColorGreen
	case search.OutcomeSkipped:
		return tcell.ColorGray
	case search.OutcomeFailed:
		return tcell.ColorRed
	default:
		return tcell.ColorWhite
	}
}

func formatDuration(d time.Duration) string {
	d = d.Truncate(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm %02ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh %02dm %02ds", int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60)
}

// trialProgress summarizes the trials by outcome. Grid points not started yet are queued.
func trialProgress(trials []*trialView, total int) string {
	count := func(outcome string) int {
		return lo.CountBy(trials, func(t *trialView) bool {
			return t.outcome == outcome
		})
	}

	parts := []string{}
	if n := count(""); n > 0 {
		parts = append(parts, fmt.Sprintf("[yellow]%d run[-]", n))
	}
	if n := count(search.OutcomeScored); n > 0 {
		parts = append(parts, fmt.Sprintf("[green]%d ok[-]", n))
	}
	if n := count(search.OutcomeFailed); n > 0 {
		parts = append(parts, fmt.Sprintf("[red]%d fail[-]", n))
	}
	if n := count(search.OutcomeSkipped); n > 0 {
		parts = append(parts, fmt.Sprintf("[gray]%d skip[-]", n))
	}
	if n := total - len(trials); n > 0 {
		parts = append(parts, fmt.Sprintf("[white]%d queue[-]", n))
	}
	return strings.Join(parts, ", ")
}
