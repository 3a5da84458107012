package statusstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransitions(t *testing.T) {
	assert := assert.New(t)

	assert.True(CanTransition(StatusPending, StatusBanned))
	assert.True(CanTransition(StatusPending, StatusOrganic))
	assert.True(CanTransition(StatusPending, StatusService))
	assert.True(CanTransition(StatusPending, StatusDeclined))
	assert.True(CanTransition(StatusPending, StatusPurged))
	assert.True(CanTransition(StatusBanned, StatusRetired))

	assert.False(CanTransition(StatusPending, StatusRetired))
	assert.False(CanTransition(StatusBanned, StatusPurged))
	assert.False(CanTransition(StatusOrganic, StatusBanned))
	assert.False(CanTransition(StatusPurged, StatusPending))
	assert.False(CanTransition(StatusRetired, StatusBanned))

	// idempotent re-set
	assert.True(CanTransition(StatusBanned, StatusBanned))
}

func TestMemStatusStoreBasics(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	s := NewMemStatusStore()

	rec, err := s.Get(ctx, "alice")
	assert.NoError(err)
	assert.Nil(rec)

	assert.NoError(s.Set(ctx, "alice", StatusPending, "new candidate", ""))
	assert.NoError(s.Set(ctx, "alice", StatusBanned, "matched", "zombie-nsfw"))

	rec, err = s.Get(ctx, "alice")
	assert.NoError(err)
	assert.Equal(StatusBanned, rec.Status)
	assert.Equal("zombie-nsfw", rec.Evaluator)

	// banned accounts only retire
	assert.Error(s.Set(ctx, "alice", StatusOrganic, "", ""))
	assert.NoError(s.Set(ctx, "alice", StatusRetired, "account vanished", ""))

	// terminal stays terminal
	assert.Error(s.Set(ctx, "alice", StatusPending, "", ""))
}

func TestMemStatusStoreOverride(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	s := NewMemStatusStore()

	assert.NoError(s.Set(ctx, "bob", StatusBanned, "matched", "telegram-handle"))

	// operator feedback outranks the state machine
	assert.NoError(s.Override(ctx, "bob", StatusOrganic, "moderator: human account"))
	rec, err := s.Get(ctx, "bob")
	assert.NoError(err)
	assert.Equal(StatusOrganic, rec.Status)
}

func TestMemStatusStoreList(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	s := NewMemStatusStore()

	assert.NoError(s.Set(ctx, "a", StatusPending, "", ""))
	assert.NoError(s.Set(ctx, "b", StatusPending, "", ""))
	assert.NoError(s.Set(ctx, "c", StatusBanned, "", "zombie"))

	pending, err := s.ListByStatus(ctx, StatusPending)
	assert.NoError(err)
	assert.Len(pending, 2)
}
