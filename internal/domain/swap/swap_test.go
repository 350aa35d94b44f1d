package swap

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StatusPending, StatusAccepted))
	assert.True(t, CanTransition(StatusPending, StatusDeclined))
	assert.False(t, CanTransition(StatusPending, StatusPending))
	assert.False(t, CanTransition(StatusAccepted, StatusDeclined))
	assert.False(t, CanTransition(StatusDeclined, StatusAccepted))
	assert.False(t, CanTransition(StatusAccepted, StatusAccepted))
}

func TestParseDirection(t *testing.T) {
	d, ok := ParseDirection("")
	assert.True(t, ok)
	assert.Equal(t, DirectionAll, d)

	d, ok = ParseDirection("received")
	assert.True(t, ok)
	assert.Equal(t, DirectionReceived, d)

	_, ok = ParseDirection("bogus")
	assert.False(t, ok)
}

func TestNewRequestAndOrdering(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	now := time.Now()
	r1 := NewRequest(a, &CreateRequestInput{ReceiverID: b, OfferedSkill: "python", WantedSkill: "excel"}, now)
	r2 := NewRequest(b, &CreateRequestInput{ReceiverID: a, OfferedSkill: "excel", WantedSkill: "python"}, now.Add(time.Second))

	assert.Equal(t, StatusPending, r1.Status)
	assert.True(t, r1.Involves(a))
	assert.True(t, r1.Involves(b))
	assert.False(t, r1.Involves(uuid.New()))
	assert.True(t, Newer(r2, r1))
	assert.False(t, Newer(r1, r2))
}
