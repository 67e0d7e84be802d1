package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/upskillhub/upskill/core/course"
	"github.com/upskillhub/upskill/core/mentor"
)

// recordingExec captures the single-row query it receives. A nil fill means no row matched.
type recordingExec struct {
	*sqlx.DB
	query string
	args  []interface{}
	fill  func(dest interface{})
}

func (e *recordingExec) GetContext(_ context.Context, dest interface{}, query string, args ...interface{}) error {
	e.query, e.args = query, args
	if e.fill == nil {
		return sql.ErrNoRows
	}
	e.fill(dest)
	return nil
}

func TestMentorRepository_BookSession(t *testing.T) {
	ctx := context.Background()
	id := "6f1c2d4e-8a9b-4c1d-9e2f-3a4b5c6d7e8f"
	at := time.Date(2030, 3, 10, 8, 0, 0, 0, time.UTC)

	t.Run("available", func(t *testing.T) {
		exec := &recordingExec{fill: func(dest interface{}) {
			*dest.(*sessionRow) = sessionRow{ID: id, StudentID: null.StringFrom("hero"), Status: mentor.SessionBooked, UpdatedAt: at}
		}}
		sess, err := NewMentorRepository(exec).BookSession(ctx, id, "hero", at)
		require.NoError(t, err)
		assert.Equal(t, mentor.SessionBooked, sess.Status)
		assert.Equal(t, "hero", sess.StudentID)

		assert.True(t, strings.HasPrefix(exec.query, "UPDATE mentor_sessions"))
		assert.Contains(t, exec.query, "WHERE id = $4 AND status = $5")
		assert.Contains(t, exec.query, "RETURNING")
		assert.Equal(t, []interface{}{mentor.SessionBooked, "hero", at, id, mentor.SessionAvailable}, exec.args)
	})

	t.Run("already taken", func(t *testing.T) {
		exec := &recordingExec{}
		_, err := NewMentorRepository(exec).BookSession(ctx, id, "hero", at)
		assert.Equal(t, mentor.ErrSessionNotAvailable, err)
	})

	t.Run("invalid id", func(t *testing.T) {
		exec := &recordingExec{}
		_, err := NewMentorRepository(exec).BookSession(ctx, "42", "hero", at)
		assert.Equal(t, mentor.ErrSessionNotFound, err)
		assert.Empty(t, exec.query)
	})
}

func TestCourseRepository_LockEnrollment(t *testing.T) {
	ctx := context.Background()
	id := "0b7e3f9a-2c4d-4e6f-8a1b-9c0d1e2f3a4b"

	exec := &recordingExec{fill: func(dest interface{}) {
		*dest.(*enrollmentRow) = enrollmentRow{ID: id, LessonsCompleted: 3, Progress: 30}
	}}
	enr, err := NewCourseRepository(exec).LockEnrollment(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 3, enr.LessonsCompleted)
	assert.True(t, strings.HasSuffix(exec.query, "WHERE id = $1 FOR UPDATE"))
	assert.Equal(t, []interface{}{id}, exec.args)

	_, err = NewCourseRepository(&recordingExec{}).LockEnrollment(ctx, id)
	assert.Equal(t, course.ErrEnrollmentNotFound, err)
}
