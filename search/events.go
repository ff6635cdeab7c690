package search

type Event interface{}

// Trials

type EventTrialStarted struct {
	Trial Trial
	Of    int
}

type EventStateChanged struct {
	Trial Trial
	State State
}

type EventTrialSkipped struct {
	Trial Trial
	Err   error
}

type EventTrialFailed struct {
	Trial Trial
	Err   error
}

type EventTrialScored struct {
	Trial Trial
	Score float64
}

// Search

type EventBestImproved struct {
	Trial Trial
	Score float64
}

type EventSearchDone struct {
	Best Best
}
