package models

import "time"

// ContactFrequency defines the cadence at which contact recurs.
type ContactFrequency string

const (
	FrequencyDaily       ContactFrequency = "daily"
	FrequencyTwiceWeekly ContactFrequency = "twice_weekly"
	FrequencyWeekly      ContactFrequency = "weekly"
	FrequencyFortnightly ContactFrequency = "fortnightly"
	FrequencyMonthly     ContactFrequency = "monthly"
	FrequencyQuarterly   ContactFrequency = "quarterly"
	FrequencyAnnually    ContactFrequency = "annually"
)

// Valid returns true when the frequency is a supported value.
func (f ContactFrequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyTwiceWeekly, FrequencyWeekly, FrequencyFortnightly,
		FrequencyMonthly, FrequencyQuarterly, FrequencyAnnually:
		return true
	default:
		return false
	}
}

// NextContactDate returns the next contact date following the given last
// contact date. Month and year offsets use time.AddDate, so adding a month to
// Jan 31 overflows into early March rather than clamping. Unrecognized
// frequencies fall back to one month.
func (f ContactFrequency) NextContactDate(last time.Time) time.Time {
	switch f {
	case FrequencyDaily:
		return last.AddDate(0, 0, 1)
	case FrequencyTwiceWeekly:
		return last.AddDate(0, 0, 3)
	case FrequencyWeekly:
		return last.AddDate(0, 0, 7)
	case FrequencyFortnightly:
		return last.AddDate(0, 0, 14)
	case FrequencyMonthly:
		return last.AddDate(0, 1, 0)
	case FrequencyQuarterly:
		return last.AddDate(0, 3, 0)
	case FrequencyAnnually:
		return last.AddDate(1, 0, 0)
	default:
		return last.AddDate(0, 1, 0)
	}
}

// ContactType classifies the form a contact session takes.
type ContactType string

const (
	ContactTypeDirect    ContactType = "direct"
	ContactTypeTelephone ContactType = "telephone"
	ContactTypeVideo     ContactType = "video"
	ContactTypeLetterbox ContactType = "letterbox"
)

// Valid returns true when the contact type is a supported value.
func (t ContactType) Valid() bool {
	switch t {
	case ContactTypeDirect, ContactTypeTelephone, ContactTypeVideo, ContactTypeLetterbox:
		return true
	default:
		return false
	}
}

// ScheduleStatus represents the lifecycle state of a contact schedule.
type ScheduleStatus string

const (
	ScheduleStatusActive    ScheduleStatus = "active"
	ScheduleStatusSuspended ScheduleStatus = "suspended"
	ScheduleStatusEnded     ScheduleStatus = "ended"
)

// ScheduleReviewInterval is the default period between schedule reviews.
const ScheduleReviewIntervalMonths = 6

// ContactSchedule defines the recurring contact arrangement between a child
// and a family member, together with its running session counters.
type ContactSchedule struct {
	ID                  string           `db:"id" json:"id"`
	ChildID             string           `db:"child_id" json:"child_id"`
	FamilyMemberID      string           `db:"family_member_id" json:"family_member_id"`
	OrganizationID      string           `db:"organization_id" json:"organization_id"`
	ReferenceNumber     string           `db:"reference_number" json:"reference_number"`
	ContactType         ContactType      `db:"contact_type" json:"contact_type"`
	Frequency           ContactFrequency `db:"frequency" json:"frequency"`
	SupervisionRequired bool             `db:"supervision_required" json:"supervision_required"`
	DurationMinutes     int              `db:"duration_minutes" json:"duration_minutes"`
	Status              ScheduleStatus   `db:"status" json:"status"`
	StartDate           time.Time        `db:"start_date" json:"start_date"`
	LastContactDate     *time.Time       `db:"last_contact_date" json:"last_contact_date,omitempty"`
	NextContactDate     *time.Time       `db:"next_contact_date" json:"next_contact_date,omitempty"`
	NextReviewDate      time.Time        `db:"next_review_date" json:"next_review_date"`
	ScheduledCount      int              `db:"scheduled_count" json:"scheduled_count"`
	CompletedCount      int              `db:"completed_count" json:"completed_count"`
	CancelledCount      int              `db:"cancelled_count" json:"cancelled_count"`
	Venue               *string          `db:"venue" json:"venue,omitempty"`
	Notes               *string          `db:"notes" json:"notes,omitempty"`
	CreatedBy           string           `db:"created_by" json:"created_by"`
	Version             int              `db:"version" json:"version"`
	CreatedAt           time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time        `db:"updated_at" json:"updated_at"`
}

// IsActive reports whether the schedule is currently in force.
func (s *ContactSchedule) IsActive() bool {
	return s.Status == ScheduleStatusActive
}

// IsDueForReview reports whether the schedule has reached its review date.
// The boundary instant counts as due.
func (s *ContactSchedule) IsDueForReview(now time.Time) bool {
	return s.IsActive() && !now.Before(s.NextReviewDate)
}

// ContactScheduleFilter captures filtering criteria for listing schedules.
type ContactScheduleFilter struct {
	ChildID        string
	FamilyMemberID string
	OrganizationID string
	Status         *ScheduleStatus
	Page           int
	PageSize       int
}
