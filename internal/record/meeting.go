package record

type MeetingType string

const (
	MeetingOnline  MeetingType = "Online"
	MeetingOffline MeetingType = "Offline"
)

var MeetingTypes = []MeetingType{MeetingOnline, MeetingOffline}

type EngagementType string

const (
	EngagementInternal EngagementType = "Internal"
	EngagementExternal EngagementType = "External"
)

var EngagementTypes = []EngagementType{EngagementInternal, EngagementExternal}

type Relationship string

const (
	RelationshipVendor  Relationship = "Vendor"
	RelationshipPartner Relationship = "Partner"
	RelationshipClient  Relationship = "Client"
)

var Relationships = []Relationship{RelationshipVendor, RelationshipPartner, RelationshipClient}

type MeetingStatus string

const (
	StatusScheduled MeetingStatus = "Scheduled"
	StatusCompleted MeetingStatus = "Completed"
	StatusCancelled MeetingStatus = "Cancelled"
)

var MeetingStatuses = []MeetingStatus{StatusScheduled, StatusCompleted, StatusCancelled}

// Meeting is a scheduled engagement with free-text minutes. Minutes are an
// ordered list that only grows by appending or shrinks by removal.
type Meeting struct {
	ID                 string         `json:"id"`
	Subject            string         `json:"subject"`
	Type               MeetingType    `json:"type"`
	EngagementType     EngagementType `json:"engagementType"`
	Engagement         string         `json:"engagement"`
	Relationship       Relationship   `json:"relationship"`
	CustomerDepartment string         `json:"customerDepartment"`
	AssignedTo         string         `json:"assignedTo"`
	Status             MeetingStatus  `json:"status"`
	StartDate          *string        `json:"startDate"`
	EndDate            *string        `json:"endDate"`
	Minutes            []string       `json:"minutes"`
}

func (m Meeting) EntityID() string { return m.ID }

func (m Meeting) WithID(id string) Meeting {
	m.ID = id
	return m
}

func (m Meeting) WithDefaults() Meeting {
	if m.Subject == "" {
		m.Subject = "Untitled Meeting"
	}
	if m.Type == "" {
		m.Type = MeetingOnline
	}
	if m.EngagementType == "" {
		m.EngagementType = EngagementInternal
	}
	if m.Relationship == "" {
		m.Relationship = RelationshipVendor
	}
	if m.AssignedTo == "" {
		m.AssignedTo = "Unassigned"
	}
	if m.Status == "" {
		m.Status = StatusScheduled
	}
	if m.Minutes == nil {
		m.Minutes = []string{}
	}
	return m
}

// Normalized rewrites the date fields into their persisted form and never
// leaves Minutes nil, so a stored meeting always serializes "minutes": [].
func (m Meeting) Normalized() Meeting {
	m.StartDate = NormalizeDate(m.StartDate)
	m.EndDate = NormalizeDate(m.EndDate)
	if m.Minutes == nil {
		m.Minutes = []string{}
	}
	return m
}

func (m Meeting) Clone() Meeting {
	m.StartDate = cloneDate(m.StartDate)
	m.EndDate = cloneDate(m.EndDate)
	if m.Minutes != nil {
		minutes := make([]string, len(m.Minutes))
		copy(minutes, m.Minutes)
		m.Minutes = minutes
	}
	return m
}
