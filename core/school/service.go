package school

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/upskillhub/upskill/core"
	"github.com/upskillhub/upskill/core/student"
	"github.com/upskillhub/upskill/core/user"
)

var (
	// errors
	ErrNotFound        = errors.New("school profile not found")
	ErrStudentNotFound = errors.New("Student not found")
	ErrAlreadyMember   = errors.New("Student is already on the roster")
	ErrMemberNotFound  = errors.New("student is not on the roster")
)

type (
	Repository interface {
		GetProfile(ctx context.Context, filter GetFilter, exec ...core.DBExecutor) (Profile, error)
		UpsertProfile(ctx context.Context, p Profile, exec ...core.DBExecutor) (Profile, error)

		// AddMember returns ErrAlreadyMember if the (school, student) pair exists.
		AddMember(ctx context.Context, m Member, exec ...core.DBExecutor) (Member, error)
		// RemoveMember returns ErrMemberNotFound if the student is not on the roster.
		RemoveMember(ctx context.Context, schoolID, studentID string, exec ...core.DBExecutor) error
		// QueryMembers returns the roster of the school, oldest first.
		QueryMembers(ctx context.Context, schoolID string, exec ...core.DBExecutor) ([]Member, error)
	}

	Service interface {
		GetByUserID(ctx context.Context, userID string) (Profile, error)
		// Ensure returns the school profile of the user, creating one named `defaultName` on first access.
		Ensure(ctx context.Context, userID, defaultName string) (Profile, error)
		CompleteOnboarding(ctx context.Context, userID string, data Onboarding) (Profile, error)

		Roster(ctx context.Context, schoolID string) ([]Member, error)
		// AddStudentByEmail adds the student account with this email to the roster and returns the roster.
		AddStudentByEmail(ctx context.Context, schoolID, email string) ([]Member, error)
		// RemoveStudent removes the student from the roster and returns the roster.
		RemoveStudent(ctx context.Context, schoolID, studentID string) ([]Member, error)
	}

	service struct {
		repo       Repository
		tx         core.Transactor
		usrSvc     user.Service
		studentSvc student.Service
	}
)

var _ Service = (*service)(nil) // interface compliance check

func NewService(repo Repository, tx core.Transactor, usrSvc user.Service, studentSvc student.Service) Service {
	return &service{repo: repo, tx: tx, usrSvc: usrSvc, studentSvc: studentSvc}
}

// Name returns the display name of a school: its profile name, else the account name, else DefaultName.
func Name(prof Profile, usr user.User) string {
	if name := core.CleanString(prof.SchoolName); name != "" {
		return name
	}
	if name := core.CleanString(usr.FullName); name != "" {
		return name
	}
	return DefaultName
}

func (svc *service) GetByUserID(ctx context.Context, userID string) (Profile, error) {
	return svc.repo.GetProfile(ctx, GetFilter{UserID: userID})
}

func (svc *service) Ensure(ctx context.Context, userID, defaultName string) (Profile, error) {
	prof, err := svc.GetByUserID(ctx, userID)
	if err == nil {
		return prof, nil
	}
	if errors.Cause(err) != ErrNotFound {
		return Profile{}, err
	}
	now := time.Now().UTC()
	return svc.repo.UpsertProfile(ctx, Profile{
		UserID:     userID,
		SchoolName: defaultName,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
}

func (svc *service) CompleteOnboarding(ctx context.Context, userID string, data Onboarding) (Profile, error) {
	now := time.Now().UTC()
	prof, err := svc.GetByUserID(ctx, userID)
	switch {
	case err == nil:
		if prof.OnboardingCompleted {
			return Profile{}, core.ErrOnboardingCompleted
		}
	case errors.Cause(err) == ErrNotFound:
		prof = Profile{UserID: userID, CreatedAt: now}
	default:
		return Profile{}, err
	}

	prof.SchoolName = data.SchoolName
	prof.ContactEmail = data.ContactEmail
	prof.ContactPhone = data.ContactPhone
	prof.Address = data.Address
	prof.OnboardingCompleted = true
	prof.UpdatedAt = now
	return svc.repo.UpsertProfile(ctx, prof)
}

func (svc *service) Roster(ctx context.Context, schoolID string) ([]Member, error) {
	members, err := svc.repo.QueryMembers(ctx, schoolID)
	if err != nil {
		return nil, errors.Wrap(err, "querying roster")
	}
	return svc.describe(ctx, members)
}

// describe fills the student details of the members.
func (svc *service) describe(ctx context.Context, members []Member) ([]Member, error) {
	if len(members) == 0 {
		return members, nil
	}

	studentIDs := make([]string, 0, len(members))
	for _, m := range members {
		studentIDs = append(studentIDs, m.StudentID)
	}
	profiles, err := svc.studentSvc.Query(ctx, studentIDs)
	if err != nil {
		return nil, errors.Wrap(err, "querying student profiles")
	}
	profByID := make(map[string]student.Profile, len(profiles))
	userIDs := make([]string, 0, len(profiles))
	for _, p := range profiles {
		profByID[p.ID] = p
		userIDs = append(userIDs, p.UserID)
	}
	users, err := svc.usrSvc.Query(ctx, &user.QueryFilter{IDs: userIDs}, nil)
	if err != nil {
		return nil, errors.Wrap(err, "querying student accounts")
	}
	usrByID := make(map[string]user.User, len(users))
	for _, u := range users {
		usrByID[u.ID] = u
	}

	for i, m := range members {
		prof, ok := profByID[m.StudentID]
		if !ok {
			continue
		}
		usr := usrByID[prof.UserID]
		members[i].UserID = prof.UserID
		members[i].FullName = usr.DisplayName("Student")
		members[i].Email = usr.Email
		members[i].GradeLevel = prof.GradeLevel
	}
	return members, nil
}

func (svc *service) AddStudentByEmail(ctx context.Context, schoolID, email string) ([]Member, error) {
	usr, err := svc.usrSvc.GetByEmail(ctx, email)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return nil, studentNotFound()
		}
		return nil, errors.Wrap(err, "finding user by email")
	}
	if !usr.IsStudent() {
		return nil, studentNotFound()
	}

	var members []Member
	err = svc.tx.InTx(ctx, func(exec core.DBExecutor) error {
		// a student account that never onboarded gets its profile here, undone if the add fails
		prof, err := svc.studentSvc.Ensure(ctx, usr.ID, exec)
		if err != nil {
			return errors.Wrap(err, "finding student profile")
		}
		_, err = svc.repo.AddMember(ctx, Member{
			SchoolID:   schoolID,
			StudentID:  prof.ID,
			EnrolledAt: time.Now().UTC(),
		}, exec)
		if err != nil {
			if errors.Cause(err) == ErrAlreadyMember {
				return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
			}
			return errors.Wrap(err, "adding roster member")
		}
		members, err = svc.repo.QueryMembers(ctx, schoolID, exec)
		return err
	})
	if err != nil {
		return nil, err
	}
	return svc.describe(ctx, members)
}

func (svc *service) RemoveStudent(ctx context.Context, schoolID, studentID string) ([]Member, error) {
	if err := svc.repo.RemoveMember(ctx, schoolID, studentID); err != nil {
		return nil, err
	}
	return svc.Roster(ctx, schoolID)
}

func studentNotFound() error {
	return core.NewValidationError(ErrStudentNotFound, core.FieldError{Field: "email", Error: ErrStudentNotFound.Error()})
}
