package delivery

// Stage is a step of the report delivery state machine
type Stage string

const (
	StageNotStarted         Stage = "not_started"
	StageURLRequested       Stage = "url_requested"
	StageUploaded           Stage = "uploaded"
	StageFinalized          Stage = "finalized"
	StageSummaryOnly        Stage = "summary_only"
	StageSummarySent        Stage = "summary_sent"
	StageSummaryFailed      Stage = "summary_failed"
	StagePreconditionFailed Stage = "precondition_failed"
)

// Terminal reports whether no further transition can happen from s
func (s Stage) Terminal() bool {
	switch s {
	case StageFinalized, StageSummarySent, StageSummaryFailed, StagePreconditionFailed:
		return true
	}
	return false
}

// advance returns the stage reached after the step attempted from s completed with err.
// Any failed upload step drops to summary_only; terminal stages never move.
func advance(s Stage, err error) Stage {
	switch s {
	case StageNotStarted:
		if err != nil {
			return StageSummaryOnly
		}
		return StageURLRequested
	case StageURLRequested:
		if err != nil {
			return StageSummaryOnly
		}
		return StageUploaded
	case StageUploaded:
		if err != nil {
			return StageSummaryOnly
		}
		return StageFinalized
	case StageSummaryOnly:
		if err != nil {
			return StageSummaryFailed
		}
		return StageSummarySent
	default:
		return s
	}
}

// Outcome is the result of a delivery attempt
type Outcome struct {
	Stage  Stage
	FileID string
	// Err is the last error seen, nil when the file was shared
	Err error
}

// Delivered reports whether the report file reached the channel
func (o Outcome) Delivered() bool {
	return o.Stage == StageFinalized
}
