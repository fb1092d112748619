package models

import "time"

// SessionStatus represents the state of an individual contact session.
type SessionStatus string

const (
	SessionStatusScheduled SessionStatus = "scheduled"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusCancelled SessionStatus = "cancelled"
)

// InteractionQuality rates the observed quality of a completed session.
type InteractionQuality string

const (
	QualityPositive   InteractionQuality = "positive"
	QualityNeutral    InteractionQuality = "neutral"
	QualityPoor       InteractionQuality = "poor"
	QualityConcerning InteractionQuality = "concerning"
)

// Valid returns true when the rating is a supported value.
func (q InteractionQuality) Valid() bool {
	switch q {
	case QualityPositive, QualityNeutral, QualityPoor, QualityConcerning:
		return true
	default:
		return false
	}
}

// ContactSession is a single contact event between a child and a family
// member. Sessions may be ad-hoc (no owning schedule) or linked to a
// ContactSchedule whose counters they cascade into.
type ContactSession struct {
	ID                   string              `db:"id" json:"id"`
	ChildID              string              `db:"child_id" json:"child_id"`
	FamilyMemberID       string              `db:"family_member_id" json:"family_member_id"`
	ContactScheduleID    *string             `db:"contact_schedule_id" json:"contact_schedule_id,omitempty"`
	OrganizationID       string              `db:"organization_id" json:"organization_id"`
	ReferenceNumber      string              `db:"reference_number" json:"reference_number"`
	Status               SessionStatus       `db:"status" json:"status"`
	SessionDate          time.Time           `db:"session_date" json:"session_date"`
	PlannedStartTime     string              `db:"planned_start_time" json:"planned_start_time"`
	PlannedEndTime       string              `db:"planned_end_time" json:"planned_end_time"`
	ActualStartTime      *string             `db:"actual_start_time" json:"actual_start_time,omitempty"`
	ActualEndTime        *string             `db:"actual_end_time" json:"actual_end_time,omitempty"`
	DurationMinutes      *int                `db:"duration_minutes" json:"duration_minutes,omitempty"`
	ChildAttended        *bool               `db:"child_attended" json:"child_attended,omitempty"`
	FamilyMemberAttended *bool               `db:"family_member_attended" json:"family_member_attended,omitempty"`
	InteractionQuality   *InteractionQuality `db:"interaction_quality" json:"interaction_quality,omitempty"`
	Assessment           *string             `db:"assessment" json:"assessment,omitempty"`
	CompletedDate        *time.Time          `db:"completed_date" json:"completed_date,omitempty"`
	CancellationDate     *time.Time          `db:"cancellation_date" json:"cancellation_date,omitempty"`
	CancelledBy          *string             `db:"cancelled_by" json:"cancelled_by,omitempty"`
	CancellationReason   *string             `db:"cancellation_reason" json:"cancellation_reason,omitempty"`
	Rescheduled          *bool               `db:"rescheduled" json:"rescheduled,omitempty"`
	RescheduledDate      *time.Time          `db:"rescheduled_date" json:"rescheduled_date,omitempty"`
	Venue                *string             `db:"venue" json:"venue,omitempty"`
	CreatedBy            string              `db:"created_by" json:"created_by"`
	Version              int                 `db:"version" json:"version"`
	CreatedAt            time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time           `db:"updated_at" json:"updated_at"`
}

// IsTerminal reports whether the session has reached a final state.
func (s *ContactSession) IsTerminal() bool {
	return s.Status == SessionStatusCompleted || s.Status == SessionStatusCancelled
}

// UrgentReviewPredicate decides whether a completed session needs urgent
// follow-up. The criteria are supplied by the caller, not fixed here.
type UrgentReviewPredicate func(*ContactSession) bool

// RequiresUrgentReview applies the supplied predicate to a completed session.
// Sessions that never completed cannot require urgent review.
func (s *ContactSession) RequiresUrgentReview(pred UrgentReviewPredicate) bool {
	if s.Status != SessionStatusCompleted || pred == nil {
		return false
	}
	return pred(s)
}

// ContactSessionFilter captures filtering criteria for listing sessions.
// Date bounds are inclusive.
type ContactSessionFilter struct {
	ChildID        string
	FamilyMemberID string
	OrganizationID string
	Status         *SessionStatus
	DateFrom       *time.Time
	DateTo         *time.Time
	Page           int
	PageSize       int
}
