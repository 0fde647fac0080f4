package runstore

import "time"

// Status is the lifecycle state of a recorded run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Run is one pipeline execution record.
type Run struct {
	ID            string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	SourceFile    string
	DisplayTitle  string
	AssetID       string
	AssetName     string
	JobID         string
	OutputAssetID string
	StreamingPath string
	Status        Status
	ErrorMessage  string
}
