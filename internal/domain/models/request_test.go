package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from    RequestStatus
		to      RequestStatus
		allowed bool
	}{
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusDeclined, true},
		{StatusPending, StatusIssued, false},
		{StatusPending, StatusReturned, false},
		{StatusApproved, StatusIssued, true},
		{StatusApproved, StatusDeclined, false},
		{StatusApproved, StatusReturned, false},
		{StatusIssued, StatusReturned, true},
		{StatusIssued, StatusApproved, false},
		{StatusDeclined, StatusApproved, false},
		{StatusReturned, StatusIssued, false},
	}

	for _, tt := range tests {
		assert.Equalf(t, tt.allowed, tt.from.CanTransition(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestTerminalStates(t *testing.T) {
	assert.True(t, StatusDeclined.Terminal())
	assert.True(t, StatusReturned.Terminal())
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusApproved.Terminal())
	assert.False(t, StatusIssued.Terminal())
}
