package models

import "time"

// ContactStatistics is the per-organization roll-up of contact activity.
// Every figure is derived; nothing here is stored state.
type ContactStatistics struct {
	TotalFamilyMembers    int       `json:"total_family_members"`
	ActiveSchedules       int       `json:"active_schedules"`
	SchedulesDueForReview int       `json:"schedules_due_for_review"`
	UpcomingSessions      int       `json:"upcoming_sessions"`
	HighRiskAssessments   int       `json:"high_risk_assessments"`
	GeneratedAt           time.Time `json:"generated_at"`
}
