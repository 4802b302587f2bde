package model

import "time"

// RecycleRecord describes an entry moved into the remote recycle bin.
type RecycleRecord struct {
	OriginalPath string    `json:"original_path"`
	RecyclePath  string    `json:"recycle_path"`
	RecycleName  string    `json:"recycle_name"`
	DeletedAt    time.Time `json:"deleted_at"`
}

// RecycleBinItem is a recycle bin entry annotated with its retention state.
type RecycleBinItem struct {
	FileItem
	AgeDays   float64   `json:"age_days"`
	ExpiresAt time.Time `json:"expires_at"`
	Expired   bool      `json:"expired"`
}

// SweepReport summarizes one retention sweep over the recycle bin.
type SweepReport struct {
	Directory  string    `json:"directory"`
	StartedAt  time.Time `json:"started_at"`
	ListedAt   time.Time `json:"listed_at"`
	FinishedAt time.Time `json:"finished_at"`
	Listed     int       `json:"listed"`
	Candidates []string  `json:"candidates"`
	Deleted    []string  `json:"deleted"`
	Missing    []string  `json:"missing,omitempty"`
	Failed     []string  `json:"failed,omitempty"`
	DryRun     bool      `json:"dry_run,omitempty"`
}
