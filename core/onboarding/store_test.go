package onboarding

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	now := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	store := NewStore(time.Hour)
	store.now = func() time.Time { return now }

	st := State{Variant: Student, Step: 2, Fields: Fields{"school_name": "Wima"}, Errors: map[string]string{}}
	store.Put("u1", st)
	store.Put("u1", State{Variant: Mentor, Step: 1, Fields: Fields{}})
	store.Put("u2", State{Variant: Student, Step: 1, Fields: Fields{}})
	assert.Equal(t, 3, store.Len())

	got, ok := store.Get("u1", Student)
	require.True(t, ok)
	assert.Equal(t, 2, got.Step)
	assert.Equal(t, now, got.UpdatedAt)

	// copies are independent of the stored state
	got.Fields["school_name"] = "changed"
	again, _ := store.Get("u1", Student)
	assert.Equal(t, "Wima", again.Fields["school_name"])

	_, ok = store.Get("u3", Student)
	assert.False(t, ok)

	now = now.Add(30 * time.Minute)
	store.Put("u2", State{Variant: Student, Step: 2, Fields: Fields{}})

	now = now.Add(45 * time.Minute)
	_, ok = store.Get("u1", Mentor)
	assert.False(t, ok, "expired")
	assert.Equal(t, 2, store.Len())

	assert.Equal(t, 1, store.Purge())
	assert.Equal(t, 1, store.Len())
	_, ok = store.Get("u2", Student)
	assert.True(t, ok)

	store.Delete("u2", Student)
	assert.Equal(t, 0, store.Len())
	assert.Equal(t, 0, store.Purge())
}

func TestNewStore_defaultTTL(t *testing.T) {
	assert.Equal(t, 24*time.Hour, NewStore(0).ttl)
}
