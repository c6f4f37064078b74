package record

import "time"

// InitialTasks returns the demo tasks loaded when no tasks are persisted yet.
// Dates are relative to now.
func InitialTasks(now time.Time) []Task {
	day := func(n int) *string { return DateOf(now.AddDate(0, 0, n)) }
	return []Task{
		{ID: "1", Name: "Project Initialization", ProjectName: "Alpha", AssignedTo: "Haris", AssignedBy: "Admin", Priority: PriorityHigh, LagType: LagFinishToStart, LagDays: "0", TopDownDuration: "5", PercentComplete: 100, Parent: "p1", EstimatedStart: day(-10), EstimatedEnd: day(-5), ActualStart: day(-10), ActualEnd: day(-5)},
		{ID: "2", Name: "Requirement Gathering", ProjectName: "Alpha", AssignedTo: "Asha", AssignedBy: "Haris", Priority: PriorityHigh, LagType: LagFinishToStart, LagDays: "0", TopDownDuration: "3", PercentComplete: 60, Parent: "p1.1", EstimatedStart: day(-4), EstimatedEnd: day(-1), ActualStart: day(-4)},
		{ID: "3", Name: "Design Database Schema", ProjectName: "Beta", AssignedTo: "Ravi", AssignedBy: "Haris", Priority: PriorityMedium, LagType: LagStartToStart, LagDays: "2", TopDownDuration: "4", PercentComplete: 0, Parent: "p1.2", EstimatedStart: day(0), EstimatedEnd: day(4)},
		{ID: "4", Name: "API Development", ProjectName: "Beta", AssignedTo: "Meena", AssignedBy: "Admin", Priority: PriorityHigh, LagType: LagFinishToStart, LagDays: "1", TopDownDuration: "7", PercentComplete: 30, Parent: "p2.1", EstimatedStart: day(5), EstimatedEnd: day(12)},
		{ID: "5", Name: "Frontend Setup", ProjectName: "Gamma", AssignedTo: "Haris", AssignedBy: "Meena", Priority: PriorityMedium, LagType: LagFinishToStart, LagDays: "0", TopDownDuration: "2", PercentComplete: 10, Parent: "p2.1", EstimatedStart: day(6), EstimatedEnd: day(8)},
		{ID: "6", Name: "Authentication Flow", ProjectName: "Gamma", AssignedTo: "Asha", AssignedBy: "Haris", Priority: PriorityCritical, LagType: LagFinishToStart, LagDays: "0", TopDownDuration: "3", PercentComplete: 50, Parent: "p3.3", EstimatedStart: day(8), EstimatedEnd: day(11)},
		{ID: "7", Name: "Unit Testing", ProjectName: "Delta", AssignedTo: "Ravi", AssignedBy: "Meena", Priority: PriorityLow, LagType: LagFinishToStart, LagDays: "3", TopDownDuration: "5", PercentComplete: 0, Parent: "p2.1", EstimatedStart: day(12), EstimatedEnd: day(17)},
		{ID: "8", Name: "Integration Testing", ProjectName: "Delta", AssignedTo: "Meena", AssignedBy: "Admin", Priority: PriorityMedium, LagType: LagFinishToStart, LagDays: "0", TopDownDuration: "4", PercentComplete: 0, Parent: "p3.1", EstimatedStart: day(18), EstimatedEnd: day(22)},
		{ID: "9", Name: "Deployment Script", ProjectName: "Alpha", AssignedTo: "Haris", AssignedBy: "Ravi", Priority: PriorityHigh, LagType: LagFinishToStart, LagDays: "0", TopDownDuration: "2", PercentComplete: 80, Parent: "p3.1", EstimatedStart: day(23), EstimatedEnd: day(25)},
		{ID: "10", Name: "User Acceptance Testing", ProjectName: "Alpha", AssignedTo: "Asha", AssignedBy: "Haris", Priority: PriorityCritical, LagType: LagFinishToStart, LagDays: "0", TopDownDuration: "5", PercentComplete: 0, Parent: "p3.2", EstimatedStart: day(26), EstimatedEnd: day(31)},
	}
}

// InitialMeetings returns the demo meetings loaded when none are persisted yet.
func InitialMeetings(now time.Time) []Meeting {
	day := func(n int) *string { return DateOf(now.AddDate(0, 0, n)) }
	return []Meeting{
		{ID: "1", Subject: "Sprint Review vs Client", Type: MeetingOnline, EngagementType: EngagementInternal, Engagement: "Project Alpha", Relationship: RelationshipVendor, CustomerDepartment: "IT", AssignedTo: "Haris", Status: StatusScheduled, StartDate: day(0), EndDate: day(0), Minutes: []string{"Discussed project milestones", "Reviewed budget"}},
		{ID: "2", Subject: "Weekly Sync", Type: MeetingOffline, EngagementType: EngagementExternal, Engagement: "Project Beta", Relationship: RelationshipPartner, CustomerDepartment: "Sales", AssignedTo: "Asha", Status: StatusCompleted, StartDate: day(-2), EndDate: day(-2), Minutes: []string{"Team updates", "Blockers identified"}},
		{ID: "3", Subject: "Design Kickoff", Type: MeetingOnline, EngagementType: EngagementInternal, Engagement: "Project Gamma", Relationship: RelationshipClient, CustomerDepartment: "Marketing", AssignedTo: "Ravi", Status: StatusCancelled, StartDate: day(2), EndDate: day(2), Minutes: []string{}},
	}
}
