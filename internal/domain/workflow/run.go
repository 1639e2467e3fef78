package workflow

import "time"

// RunStatus represents the lifecycle state of a Run.
type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunWaiting   RunStatus = "waiting"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// IsValid returns true if the status is one of the defined constants.
func (s RunStatus) IsValid() bool {
	switch s {
	case RunPending, RunRunning, RunWaiting, RunCompleted, RunFailed:
		return true
	default:
		return false
	}
}

// IsTerminal returns true once the run can no longer make progress.
func (s RunStatus) IsTerminal() bool {
	return s == RunCompleted || s == RunFailed
}

// String implements fmt.Stringer.
func (s RunStatus) String() string {
	return string(s)
}

// StepResult records the outcome of one executed action.
type StepResult struct {
	Index      int        `json:"index"`
	Type       ActionType `json:"type"`
	Attempts   int        `json:"attempts"`
	Error      string     `json:"error,omitempty"`
	FinishedAt time.Time  `json:"finished_at"`
}

// Run is one execution of a workflow's action list against a concrete
// signal. The triggering signal's fields are frozen onto the run so a wait
// resumed after a restart evaluates the same data. CurrentStep is the index
// of the next action to execute.
type Run struct {
	ID           string
	OrgID        string
	WorkflowID   string
	SignalID     string
	SignalType   string
	SubjectID    string
	SignalFields map[string]string
	Status       RunStatus
	CurrentStep  int
	Steps        []StepResult
	Error        string
	ResumeAt     *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
