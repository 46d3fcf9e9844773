package constants

// JobStatus is the canonical status for rows in jobs.
type JobStatus string

// Stable values (store these exact strings in DB).
const (
	JobStatusUploaded   JobStatus = "uploaded"   // intake done, waiting for a worker
	JobStatusProcessing JobStatus = "processing" // claimed by a worker
	JobStatusCompleted  JobStatus = "completed"  // terminal success
	JobStatusFailed     JobStatus = "failed"     // terminal failure
)

var allStatuses = []JobStatus{
	JobStatusUploaded,
	JobStatusProcessing,
	JobStatusCompleted,
	JobStatusFailed,
}

// StatusStrings returns the allowed status values for schema validation.
func StatusStrings() []string {
	out := make([]string, len(allStatuses))
	for i, s := range allStatuses {
		out[i] = string(s)
	}
	return out
}

// IsTerminal reports whether no further transition may leave s.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// IsPending reports whether the job is still waiting on a worker outcome.
func (s JobStatus) IsPending() bool {
	return s == JobStatusUploaded || s == JobStatusProcessing
}

// CanTransitionTo reports whether next is a legal forward move from s.
// The machine is uploaded -> processing -> {completed|failed}; intake may
// abort an uploaded job straight to failed; terminal states accept nothing.
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	switch s {
	case JobStatusUploaded:
		return next == JobStatusProcessing || next == JobStatusFailed
	case JobStatusProcessing:
		return next == JobStatusCompleted || next == JobStatusFailed
	default:
		return false
	}
}
