package models

type SyncOutcome string

const (
	SyncPushed           SyncOutcome = "pushed"
	SyncSkippedNoRemote  SyncOutcome = "skipped-no-remote"
	SyncSkippedNoChanges SyncOutcome = "skipped-no-changes"
	SyncFailed           SyncOutcome = "failed"
)

// SyncEvent describes what happened to the repository after a write.
type SyncEvent struct {
	Path    string      `json:"path"`
	Message string      `json:"message"`
	Outcome SyncOutcome `json:"outcome"`
	Error   string      `json:"error,omitempty"`
}

func (e *SyncEvent) Failed() bool {
	return e.Outcome == SyncFailed
}
