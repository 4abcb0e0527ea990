package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var allStatuses = []AssignmentStatus{AssignmentPending, AssignmentCheckedOut, AssignmentReturned, AssignmentLost}

func TestTransitionTo_AllowedEdges(t *testing.T) {
	allowed := map[AssignmentStatus][]AssignmentStatus{
		AssignmentPending:    {AssignmentCheckedOut},
		AssignmentCheckedOut: {AssignmentReturned, AssignmentLost},
	}
	for _, from := range allStatuses {
		for _, to := range allStatuses {
			err := from.TransitionTo(to)
			if contains(allowed[from], to) {
				assert.NoError(t, err, "%s -> %s", from, to)
			} else {
				assert.ErrorIs(t, err, ErrInvalidStateTransition, "%s -> %s", from, to)
			}
		}
	}
}

func TestTransitionTo_TerminalStatesAbsorb(t *testing.T) {
	for _, from := range []AssignmentStatus{AssignmentReturned, AssignmentLost} {
		assert.True(t, from.Terminal())
		for _, to := range allStatuses {
			assert.Error(t, from.TransitionTo(to))
		}
	}
	assert.False(t, AssignmentPending.Terminal())
	assert.False(t, AssignmentCheckedOut.Terminal())
}

func TestOverlaps_ClosedRanges(t *testing.T) {
	d := func(s string) time.Time {
		v, _ := ParseDay(s)
		return v
	}
	tests := []struct {
		name       string
		s1, e1     string
		s2, e2     string
		wantResult bool
	}{
		{"disjoint", "2024-05-01", "2024-05-02", "2024-05-04", "2024-05-05", false},
		{"same day turnover", "2024-05-01", "2024-05-03", "2024-05-03", "2024-05-05", true},
		{"next day", "2024-05-01", "2024-05-03", "2024-05-04", "2024-05-05", false},
		{"contained", "2024-05-01", "2024-05-10", "2024-05-04", "2024-05-05", true},
		{"single day both", "2024-05-01", "2024-05-01", "2024-05-01", "2024-05-01", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantResult, Overlaps(d(tt.s1), d(tt.e1), d(tt.s2), d(tt.e2)))
			assert.Equal(t, tt.wantResult, Overlaps(d(tt.s2), d(tt.e2), d(tt.s1), d(tt.e1)))
		})
	}
}

func TestEquipmentSource_Valid(t *testing.T) {
	assert.True(t, SourceCenter.Valid())
	assert.True(t, SourceCustomerOwn.Valid())
	assert.False(t, EquipmentSource("borrowed").Valid())
}

func contains(ss []AssignmentStatus, s AssignmentStatus) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
