package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFamilyMemberIsContactAllowed(t *testing.T) {
	now := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	future := now.AddDate(1, 0, 0)
	past := now.AddDate(-1, 0, 0)

	base := FamilyMember{Status: FamilyMemberStatusActive, RestrictionLevel: RestrictionNone}
	assert.True(t, base.IsContactAllowed(now))

	for _, status := range []FamilyMemberStatus{
		FamilyMemberStatusSuspended,
		FamilyMemberStatusRestricted,
		FamilyMemberStatusDeceased,
		FamilyMemberStatusNoContact,
	} {
		member := base
		member.Status = status
		assert.False(t, member.IsContactAllowed(now), "status %s", status)
	}

	blocked := base
	blocked.RestrictionLevel = RestrictionNoContact
	assert.False(t, blocked.IsContactAllowed(now))

	supervised := base
	supervised.RestrictionLevel = RestrictionSupervisedOnly
	assert.True(t, supervised.IsContactAllowed(now))

	checked := base
	checked.DBSCheckRequired = true
	assert.False(t, checked.IsContactAllowed(now), "required check with no expiry is invalid")

	checked.DBSCheckExpiry = &future
	assert.True(t, checked.IsContactAllowed(now))

	checked.DBSCheckExpiry = &past
	assert.False(t, checked.IsContactAllowed(now))
}

func TestFamilyMemberPatchApply(t *testing.T) {
	member := FamilyMember{
		ID:              "fm-1",
		ChildID:         "child-1",
		ReferenceNumber: "FM-2025-0001",
		FullName:        "Sarah Connor",
		Status:          FamilyMemberStatusActive,
	}
	name := "Sarah Connor-Reese"
	status := FamilyMemberStatusSuspended
	FamilyMemberPatch{FullName: &name, Status: &status}.Apply(&member)

	assert.Equal(t, "Sarah Connor-Reese", member.FullName)
	assert.Equal(t, FamilyMemberStatusSuspended, member.Status)
	assert.Equal(t, "FM-2025-0001", member.ReferenceNumber)
	assert.Equal(t, "child-1", member.ChildID)
}
