package record

// LagType is the dependency relation between a task and its predecessor.
type LagType string

const (
	LagFinishToStart  LagType = "FS"
	LagStartToStart   LagType = "SS"
	LagFinishToFinish LagType = "FF"
	LagStartToFinish  LagType = "SF"
)

var LagTypes = []LagType{LagFinishToStart, LagStartToStart, LagFinishToFinish, LagStartToFinish}

type Priority string

const (
	PriorityLow      Priority = "Low"
	PriorityMedium   Priority = "Medium"
	PriorityHigh     Priority = "High"
	PriorityCritical Priority = "Critical"
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

// Task is a schedulable unit of project work.
//
// Parent references another task id; cycles are not prevented. Numeric
// scheduling fields (LagDays, TopDownDuration) are kept as numeric strings,
// the way the forms submit them.
type Task struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	ProjectName     string   `json:"projectName"`
	Parent          string   `json:"parent"`
	LagType         LagType  `json:"lagType"`
	LagDays         string   `json:"lagDays"`
	TopDownDuration string   `json:"topDownDuration"`
	AssignedTo      string   `json:"assignedTo"`
	AssignedBy      string   `json:"assignedBy"`
	Priority        Priority `json:"priority"`
	PercentComplete float64  `json:"percentComplete"`
	EstimatedStart  *string  `json:"estimatedStart"`
	EstimatedEnd    *string  `json:"estimatedEnd"`
	RevisedStart    *string  `json:"revisedStart"`
	RevisedEnd      *string  `json:"revisedEnd"`
	ActualStart     *string  `json:"actualStart"`
	ActualEnd       *string  `json:"actualEnd"`
}

func (t Task) EntityID() string { return t.ID }

func (t Task) WithID(id string) Task {
	t.ID = id
	return t
}

// WithDefaults fills every omitted (zero) field with the value a newly
// created task gets.
func (t Task) WithDefaults() Task {
	if t.Name == "" {
		t.Name = "Untitled Task"
	}
	if t.AssignedTo == "" {
		t.AssignedTo = "Unassigned"
	}
	if t.LagType == "" {
		t.LagType = LagFinishToStart
	}
	if t.LagDays == "" {
		t.LagDays = "0"
	}
	if t.TopDownDuration == "" {
		t.TopDownDuration = "1"
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if t.ProjectName == "" {
		t.ProjectName = "New Project"
	}
	if t.AssignedBy == "" {
		t.AssignedBy = "Admin"
	}
	return t
}

// Normalized rewrites every date field into its persisted form.
func (t Task) Normalized() Task {
	t.EstimatedStart = NormalizeDate(t.EstimatedStart)
	t.EstimatedEnd = NormalizeDate(t.EstimatedEnd)
	t.RevisedStart = NormalizeDate(t.RevisedStart)
	t.RevisedEnd = NormalizeDate(t.RevisedEnd)
	t.ActualStart = NormalizeDate(t.ActualStart)
	t.ActualEnd = NormalizeDate(t.ActualEnd)
	return t
}

// Clone returns a copy sharing no memory with t.
func (t Task) Clone() Task {
	t.EstimatedStart = cloneDate(t.EstimatedStart)
	t.EstimatedEnd = cloneDate(t.EstimatedEnd)
	t.RevisedStart = cloneDate(t.RevisedStart)
	t.RevisedEnd = cloneDate(t.RevisedEnd)
	t.ActualStart = cloneDate(t.ActualStart)
	t.ActualEnd = cloneDate(t.ActualEnd)
	return t
}
