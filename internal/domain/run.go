package domain

import "time"

// Run statuses recorded in RunSummary.Status.
const (
	RunSucceeded = "succeeded"
	RunFailed    = "failed"
)

// Discard is a file seen during cataloging but excluded from it.
type Discard struct {
	Path   string
	Reason string
}

// RunSummary is the structured result of one pipeline run. Every counter
// is filled in as far as the run progressed, so a failed run still shows
// where data was lost.
type RunSummary struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Status     string
	Error      string

	SourceDir  string
	StagingDir string
	OutputPath string

	FilesCataloged int
	FilesUndated   int
	FilesStaged    int
	FilesReused    int
	StageFailures  int
	FilesMerged    int
	FilesSkipped   int
	MalformedRows  int
	RowsMerged     int
	RowsDropped    int
	RowsOut        int
	RowsFiltered   int
	Columns        int
	Locations      int

	FirstTimestamp time.Time
	LastTimestamp  time.Time

	Staged   []StagedFile
	Discards []Discard
	Issues   []Issue
}

// Issue is a per-file problem attributed to the stage that hit it.
type Issue struct {
	Stage  string
	Path   string
	Reason string
}

// AddIssues appends one Issue per FileError under the given stage name.
func (s *RunSummary) AddIssues(stage string, errs []FileError) {
	for _, fe := range errs {
		s.Issues = append(s.Issues, Issue{Stage: stage, Path: fe.Path, Reason: fe.Err.Error()})
	}
}
