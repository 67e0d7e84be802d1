package mentor_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upskillhub/upskill/core"
	"github.com/upskillhub/upskill/core/mentor"
	"github.com/upskillhub/upskill/services/email"
	"github.com/upskillhub/upskill/tests"
)

func newSession(date string) mentor.NewSession {
	return mentor.NewSession{
		Title:       "Career chat",
		SessionDate: date,
		StartTime:   "10:00",
		EndTime:     "11:00",
		SessionType: mentor.OneOnOne,
	}
}

func TestService_CreateSession(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	_, pending := testutil.CreateMentor(t, env, "Grace", "grace@test.cd", mentor.StatusPending)
	_, verified := testutil.CreateMentor(t, env, "Alan", "alan@test.cd", mentor.StatusVerified)

	_, err := env.MentorSvc.CreateSession(ctx, pending.ID, newSession("2030-01-01"))
	assert.Equal(t, mentor.ErrNotVerified, err)

	_, err = env.MentorSvc.CreateSession(ctx, "c0ffee00-0000-0000-0000-000000000000", newSession("2030-01-01"))
	assert.Equal(t, mentor.ErrNotFound, errors.Cause(err))

	sess, err := env.MentorSvc.CreateSession(ctx, verified.ID, newSession("2030-01-01"))
	require.NoError(t, err)
	assert.Equal(t, mentor.SessionAvailable, sess.Status)
	assert.Equal(t, verified.ID, sess.MentorID)
	assert.Equal(t, 1, sess.MaxParticipants)
}

func TestService_SessionLifecycle(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	_, grace := testutil.CreateMentor(t, env, "Grace", "grace@test.cd", mentor.StatusVerified)
	_, hero := testutil.CreateStudent(t, env, "Hero", "hero@test.cd")

	orig := mentor.NowFunc
	mentor.NowFunc = func() time.Time { return time.Date(2030, 3, 10, 8, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { mentor.NowFunc = orig })

	past, err := env.MentorSvc.CreateSession(ctx, grace.ID, newSession("2030-03-01"))
	require.NoError(t, err)
	later, err := env.MentorSvc.CreateSession(ctx, grace.ID, newSession("2030-04-01"))
	require.NoError(t, err)
	today, err := env.MentorSvc.CreateSession(ctx, grace.ID, newSession("2030-03-10"))
	require.NoError(t, err)

	open, err := env.MentorSvc.ListOpenSessions(ctx)
	require.NoError(t, err)
	if assert.Len(t, open, 2) {
		assert.Equal(t, today.ID, open[0].ID)
		assert.Equal(t, later.ID, open[1].ID)
	}

	booked, err := env.MentorSvc.BookSession(ctx, today.ID, hero.ID)
	require.NoError(t, err)
	assert.Equal(t, mentor.SessionBooked, booked.Status)
	assert.Equal(t, hero.ID, booked.StudentID)

	_, err = env.MentorSvc.BookSession(ctx, today.ID, hero.ID)
	assert.True(t, core.IsValidationError(err))
	assert.Equal(t, mentor.ErrSessionNotAvailable, errors.Cause(err.(*core.ValidationError).Err))

	// releasing a booked session forgets the student
	released, err := env.MentorSvc.UpdateSessionStatus(ctx, grace.ID, today.ID, mentor.SessionAvailable)
	require.NoError(t, err)
	assert.Empty(t, released.StudentID)

	_, err = env.MentorSvc.UpdateSessionStatus(ctx, grace.ID, past.ID, "postponed")
	assert.True(t, core.IsValidationError(err))

	_, err = env.MentorSvc.UpdateSessionStatus(ctx, "someone-else", past.ID, mentor.SessionCompleted)
	assert.Equal(t, mentor.ErrSessionNotFound, errors.Cause(err))

	remaining, err := env.MentorSvc.DeleteSession(ctx, grace.ID, past.ID)
	require.NoError(t, err)
	assert.Len(t, remaining, 2)

	_, err = env.MentorSvc.DeleteSession(ctx, grace.ID, past.ID)
	assert.Equal(t, mentor.ErrSessionNotFound, errors.Cause(err))
}

func TestService_BookSession_concurrent(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	_, grace := testutil.CreateMentor(t, env, "Grace", "grace@test.cd", mentor.StatusVerified)
	sess, err := env.MentorSvc.CreateSession(ctx, grace.ID, newSession("2030-01-01"))
	require.NoError(t, err)

	const students = 8
	winners := make(chan string, students)
	var wg sync.WaitGroup
	for i := 0; i < students; i++ {
		wg.Add(1)
		go func(studentID string) {
			defer wg.Done()
			booked, err := env.MentorSvc.BookSession(ctx, sess.ID, studentID)
			if err == nil {
				winners <- booked.StudentID
				return
			}
			assert.True(t, core.IsValidationError(err), err)
		}(fmt.Sprintf("student-%d", i))
	}
	wg.Wait()
	close(winners)

	var booked []string
	for id := range winners {
		booked = append(booked, id)
	}
	require.Len(t, booked, 1)

	sessions, err := env.MentorSvc.ListSessions(ctx, grace.ID)
	require.NoError(t, err)
	if assert.Len(t, sessions, 1) {
		assert.Equal(t, mentor.SessionBooked, sessions[0].Status)
		assert.Equal(t, booked[0], sessions[0].StudentID)
	}
}

func TestService_SetVerification(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	_, grace := testutil.CreateMentor(t, env, "Grace", "grace@test.cd", mentor.StatusPending)

	_, err := env.MentorSvc.SetVerification(ctx, grace.ID, "approved")
	assert.True(t, core.IsValidationError(err))

	_, err = env.MentorSvc.SetVerification(ctx, "c0ffee00-0000-0000-0000-000000000000", mentor.StatusVerified)
	assert.Equal(t, mentor.ErrNotFound, errors.Cause(err))

	tests := []struct {
		status   string
		wantMail bool
	}{
		{mentor.StatusPending, false},
		{mentor.StatusRejected, true},
		{mentor.StatusRejected, false},
		{mentor.StatusVerified, true},
		{mentor.StatusPending, false},
	}
	for _, tt := range tests {
		emailsvc.ResetSent()
		prof, err := env.MentorSvc.SetVerification(ctx, grace.ID, tt.status)
		require.NoError(t, err)
		assert.Equal(t, tt.status, prof.VerificationStatus)

		sent := emailsvc.Sent()
		if !tt.wantMail {
			assert.Empty(t, sent, tt.status)
			continue
		}
		if assert.Len(t, sent, 1, tt.status) {
			assert.Equal(t, "grace@test.cd", sent[0].To[0].Address)
			assert.Equal(t, "mentor_verification", sent[0].TemplateName)
		}
	}
}

func TestService_CompleteOnboarding(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	usr := testutil.CreateUser(t, env.UserRepo, "Ada", "ada@test.cd", testutil.Password, []string{"mentor"}, true)

	input := mentor.ProfileInput{
		Phone:             "0812345678",
		Bio:               "Engineer mentoring students on web development and careers in tech.",
		ExpertiseAreas:    []string{"Web Development"},
		YearsOfExperience: 5,
	}
	quals := []mentor.QualificationInput{{Title: "BSc Computer Science", Institution: "UNIKIN", YearObtained: 2015}}

	_, err := env.MentorSvc.CompleteOnboarding(ctx, usr.ID, input, nil)
	assert.True(t, core.IsValidationError(err))

	prof, err := env.MentorSvc.CompleteOnboarding(ctx, usr.ID, input, quals)
	require.NoError(t, err)
	assert.Equal(t, mentor.StatusPending, prof.VerificationStatus)
	assert.True(t, prof.OnboardingCompleted)
	assert.True(t, prof.IsAvailable)
	if assert.Len(t, prof.Qualifications, 1) {
		assert.Equal(t, prof.ID, prof.Qualifications[0].MentorID)
	}

	_, err = env.MentorSvc.CompleteOnboarding(ctx, usr.ID, input, quals)
	assert.Equal(t, core.ErrOnboardingCompleted, errors.Cause(err))

	prof, err = env.MentorSvc.SetAvailability(ctx, usr.ID, false)
	require.NoError(t, err)
	assert.False(t, prof.IsAvailable)
	assert.Len(t, prof.Qualifications, 1)
}
