package resolver

type Outcome int

const (
	// OutcomeSkipped means the stage was not needed.
	OutcomeSkipped Outcome = iota
	// OutcomeFilled means the stage supplied at least one missing value.
	OutcomeFilled
	// OutcomeEmpty means the source answered but had nothing to add.
	OutcomeEmpty
	// OutcomeUnavailable means the source failed; Err holds why.
	OutcomeUnavailable
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFilled:
		return "filled"
	case OutcomeEmpty:
		return "empty"
	case OutcomeUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

const (
	StageProject  = "project"
	StageUser     = "user"
	StageFallback = "fallback"
)

type StageResult struct {
	Stage   string
	Outcome Outcome
	Err     error
}

// Report describes how one resolution went, stage by stage.
type Report struct {
	ID     string
	Stages []StageResult
}

// Outcome returns the outcome of the named stage, or OutcomeSkipped if it
// never ran.
func (r Report) Outcome(stage string) Outcome {
	for _, s := range r.Stages {
		if s.Stage == stage {
			return s.Outcome
		}
	}
	return OutcomeSkipped
}
