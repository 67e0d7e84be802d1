package school_test

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upskillhub/upskill/core"
	"github.com/upskillhub/upskill/core/school"
	"github.com/upskillhub/upskill/core/student"
	"github.com/upskillhub/upskill/core/user"
	"github.com/upskillhub/upskill/tests"
)

func TestService_Ensure(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	usr := testutil.CreateUser(t, env.UserRepo, "Wima", "wima@test.cd", testutil.Password, []string{user.RoleSchool}, true)

	_, err := env.SchoolSvc.GetByUserID(ctx, usr.ID)
	assert.Equal(t, school.ErrNotFound, errors.Cause(err))

	prof, err := env.SchoolSvc.Ensure(ctx, usr.ID, "Lycée Wima")
	require.NoError(t, err)
	assert.Equal(t, "Lycée Wima", prof.SchoolName)
	assert.False(t, prof.OnboardingCompleted)

	again, err := env.SchoolSvc.Ensure(ctx, usr.ID, "Another Name")
	require.NoError(t, err)
	assert.Equal(t, prof.ID, again.ID)
	assert.Equal(t, "Lycée Wima", again.SchoolName)
}

func TestService_CompleteOnboarding(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	usr := testutil.CreateUser(t, env.UserRepo, "Wima", "wima@test.cd", testutil.Password, []string{user.RoleSchool}, true)

	_, err := env.SchoolSvc.Ensure(ctx, usr.ID, school.DefaultName)
	require.NoError(t, err)

	prof, err := env.SchoolSvc.CompleteOnboarding(ctx, usr.ID, school.Onboarding{SchoolName: "Lycée Wima", Address: "Kinshasa"})
	require.NoError(t, err)
	assert.True(t, prof.OnboardingCompleted)
	assert.Equal(t, "Lycée Wima", prof.SchoolName)

	_, err = env.SchoolSvc.CompleteOnboarding(ctx, usr.ID, school.Onboarding{SchoolName: "Again"})
	assert.Equal(t, core.ErrOnboardingCompleted, errors.Cause(err))
}

func TestService_Roster(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	_, wima := testutil.CreateSchool(t, env, "Lycée Wima", "wima@test.cd")
	_, hero := testutil.CreateStudent(t, env, "Hero", "hero@test.cd")
	testutil.CreateStudent(t, env, "Other", "other@test.cd")
	testutil.CreateMentor(t, env, "Grace", "grace@test.cd", "verified")
	// a student account that never onboarded
	newbie := testutil.CreateUser(t, env.UserRepo, "Newbie", "newbie@test.cd", testutil.Password, []string{user.RoleStudent}, true)

	roster, err := env.SchoolSvc.Roster(ctx, wima.ID)
	require.NoError(t, err)
	assert.Empty(t, roster)

	for _, email := range []string{"unknown@test.cd", "grace@test.cd", ""} {
		_, err = env.SchoolSvc.AddStudentByEmail(ctx, wima.ID, email)
		if assert.True(t, core.IsValidationError(err), email) {
			assert.Equal(t, map[string]string{"email": "Student not found"}, errors.Cause(err).(*core.ValidationError).FieldMap())
		}
	}

	roster, err = env.SchoolSvc.AddStudentByEmail(ctx, wima.ID, " HERO@test.cd ")
	require.NoError(t, err)
	if assert.Len(t, roster, 1) {
		assert.Equal(t, hero.ID, roster[0].StudentID)
		assert.Equal(t, "Hero", roster[0].FullName)
		assert.Equal(t, "hero@test.cd", roster[0].Email)
		assert.Equal(t, hero.GradeLevel, roster[0].GradeLevel)
	}

	_, err = env.SchoolSvc.AddStudentByEmail(ctx, wima.ID, "hero@test.cd")
	if assert.True(t, core.IsValidationError(err)) {
		assert.Equal(t, school.ErrAlreadyMember, errors.Cause(err).(*core.ValidationError).Err)
	}

	roster, err = env.SchoolSvc.AddStudentByEmail(ctx, wima.ID, "other@test.cd")
	require.NoError(t, err)
	assert.Len(t, roster, 2)

	// the student profile is created on the fly
	roster, err = env.SchoolSvc.AddStudentByEmail(ctx, wima.ID, "newbie@test.cd")
	require.NoError(t, err)
	assert.Len(t, roster, 3)
	newbieProf, err := env.StudentSvc.GetByUserID(ctx, newbie.ID)
	require.NoError(t, err)

	roster, err = env.SchoolSvc.RemoveStudent(ctx, wima.ID, newbieProf.ID)
	require.NoError(t, err)
	assert.Len(t, roster, 2)

	_, err = env.SchoolSvc.RemoveStudent(ctx, wima.ID, newbieProf.ID)
	assert.Equal(t, school.ErrMemberNotFound, errors.Cause(err))
}

// recordingTx hands `exec` to the unit of work and remembers whether one is running.
type recordingTx struct {
	exec   core.DBExecutor
	active bool
}

func (tx *recordingTx) InTx(_ context.Context, fn func(exec core.DBExecutor) error) error {
	tx.active = true
	defer func() { tx.active = false }()
	return fn(tx.exec)
}

type ensureRecorder struct {
	student.Service
	tx    *recordingTx
	execs []core.DBExecutor
	inTx  []bool
}

func (svc *ensureRecorder) Ensure(ctx context.Context, userID string, exec ...core.DBExecutor) (student.Profile, error) {
	svc.inTx = append(svc.inTx, svc.tx.active)
	svc.execs = append(svc.execs, exec...)
	return svc.Service.Ensure(ctx, userID, exec...)
}

func TestService_AddStudentByEmail_profileInTransaction(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	_, wima := testutil.CreateSchool(t, env, "Lycée Wima", "wima@test.cd")
	newbie := testutil.CreateUser(t, env.UserRepo, "Newbie", "newbie@test.cd", testutil.Password, []string{user.RoleStudent}, true)

	tx := &recordingTx{exec: &sqlx.Tx{}}
	students := &ensureRecorder{Service: env.StudentSvc, tx: tx}
	svc := school.NewService(env.SchoolRepo, tx, env.UserSvc, students)

	roster, err := svc.AddStudentByEmail(ctx, wima.ID, "newbie@test.cd")
	require.NoError(t, err)
	assert.Len(t, roster, 1)
	assert.Equal(t, []bool{true}, students.inTx)
	if assert.Len(t, students.execs, 1) {
		assert.Equal(t, tx.exec, students.execs[0])
	}

	_, err = svc.AddStudentByEmail(ctx, wima.ID, "newbie@test.cd")
	if assert.True(t, core.IsValidationError(err)) {
		assert.Equal(t, school.ErrAlreadyMember, errors.Cause(err).(*core.ValidationError).Err)
	}
	assert.Equal(t, []bool{true, true}, students.inTx)

	prof, err := env.StudentSvc.GetByUserID(ctx, newbie.ID)
	require.NoError(t, err)
	assert.False(t, prof.OnboardingCompleted)
}
