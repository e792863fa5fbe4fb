package worker

// Disposition enumerates the ways a handler run can end.
type Disposition int

const (
	// DispositionSuccess marks the job complete.
	DispositionSuccess Disposition = iota
	// DispositionSkip removes the job without recording a failure. Used
	// for work that turned out to be inapplicable, such as content that
	// became invisible between enqueue and execution.
	DispositionSkip
	// DispositionRetry reschedules the job with backoff until the
	// attempt limit is reached.
	DispositionRetry
	// DispositionFail marks the job failed immediately, with no retry.
	DispositionFail
)

// Outcome is the sole result type a handler returns. Control flow is
// expressed through the disposition rather than error sentinels, so the
// pool can act on it without classifying errors itself.
type Outcome struct {
	disposition Disposition
	reason      string
	err         error
}

// Success reports a completed job.
func Success() Outcome {
	return Outcome{disposition: DispositionSuccess}
}

// Skip reports a job that no longer applies. The reason is logged but
// not persisted.
func Skip(reason string) Outcome {
	return Outcome{disposition: DispositionSkip, reason: reason}
}

// Retry reports a transient failure worth another attempt.
func Retry(err error) Outcome {
	return Outcome{disposition: DispositionRetry, err: err}
}

// Fail reports a permanent failure.
func Fail(err error) Outcome {
	return Outcome{disposition: DispositionFail, err: err}
}

// Disposition returns how the handler run ended.
func (o Outcome) Disposition() Disposition { return o.disposition }

// Reason returns the skip explanation, if any.
func (o Outcome) Reason() string { return o.reason }

// Err returns the failure cause for retry and fail outcomes.
func (o Outcome) Err() error { return o.err }

func (d Disposition) String() string {
	switch d {
	case DispositionSuccess:
		return "success"
	case DispositionSkip:
		return "skip"
	case DispositionRetry:
		return "retry"
	case DispositionFail:
		return "fail"
	default:
		return "unknown"
	}
}
