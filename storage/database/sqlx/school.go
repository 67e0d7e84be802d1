package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/upskillhub/upskill/core"
	"github.com/upskillhub/upskill/core/school"
)

const schoolColumns = `id, user_id, school_name, contact_email, contact_phone, address, onboarding_completed, created_at, updated_at`

type schoolRow struct {
	ID                  string      `db:"id"`
	UserID              string      `db:"user_id"`
	SchoolName          string      `db:"school_name"`
	ContactEmail        null.String `db:"contact_email"`
	ContactPhone        null.String `db:"contact_phone"`
	Address             null.String `db:"address"`
	OnboardingCompleted bool        `db:"onboarding_completed"`
	CreatedAt           time.Time   `db:"created_at"`
	UpdatedAt           time.Time   `db:"updated_at"`
}

func (r schoolRow) model() school.Profile {
	return school.Profile{
		ID:                  r.ID,
		UserID:              r.UserID,
		SchoolName:          r.SchoolName,
		ContactEmail:        r.ContactEmail.String,
		ContactPhone:        r.ContactPhone.String,
		Address:             r.Address.String,
		OnboardingCompleted: r.OnboardingCompleted,
		CreatedAt:           r.CreatedAt.UTC(),
		UpdatedAt:           r.UpdatedAt.UTC(),
	}
}

type memberRow struct {
	ID         string    `db:"id"`
	SchoolID   string    `db:"school_id"`
	StudentID  string    `db:"student_id"`
	EnrolledAt time.Time `db:"enrolled_at"`
}

func (r memberRow) model() school.Member {
	return school.Member{
		ID:         r.ID,
		SchoolID:   r.SchoolID,
		StudentID:  r.StudentID,
		EnrolledAt: r.EnrolledAt.UTC(),
	}
}

type schoolRepository struct {
	exec core.DBExecutor
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(exec core.DBExecutor) school.Repository {
	return &schoolRepository{exec: exec}
}

func (repo *schoolRepository) GetProfile(ctx context.Context, filter school.GetFilter, exec ...core.DBExecutor) (school.Profile, error) {
	var (
		row schoolRow
		err error
	)
	exe := core.Executor(repo.exec, exec)
	switch {
	case filter.ID != "":
		if _, err = uuid.Parse(filter.ID); err != nil {
			return school.Profile{}, school.ErrNotFound
		}
		err = exe.GetContext(ctx, &row, "SELECT "+schoolColumns+" FROM school_profiles WHERE id = $1", filter.ID)
	case filter.UserID != "":
		err = exe.GetContext(ctx, &row, "SELECT "+schoolColumns+" FROM school_profiles WHERE user_id = $1", filter.UserID)
	default:
		return school.Profile{}, school.ErrNotFound
	}
	if err != nil {
		return school.Profile{}, trapNoRowsErr(err, school.ErrNotFound, "finding school profile")
	}
	return row.model(), nil
}

func (repo *schoolRepository) UpsertProfile(ctx context.Context, p school.Profile, exec ...core.DBExecutor) (school.Profile, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	q := `INSERT INTO school_profiles (` + schoolColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id) DO UPDATE SET
			school_name = EXCLUDED.school_name, contact_email = EXCLUDED.contact_email,
			contact_phone = EXCLUDED.contact_phone, address = EXCLUDED.address,
			onboarding_completed = EXCLUDED.onboarding_completed, updated_at = EXCLUDED.updated_at
		RETURNING ` + schoolColumns

	var saved schoolRow
	err := core.Executor(repo.exec, exec).GetContext(ctx, &saved, q,
		p.ID, p.UserID, p.SchoolName, nullString(p.ContactEmail), nullString(p.ContactPhone), nullString(p.Address),
		p.OnboardingCompleted, p.CreatedAt.UTC(), p.UpdatedAt.UTC(),
	)
	if err != nil {
		return school.Profile{}, errors.Wrap(err, "upserting school profile")
	}
	return saved.model(), nil
}

func (repo *schoolRepository) AddMember(ctx context.Context, m school.Member, exec ...core.DBExecutor) (school.Member, error) {
	row := memberRow{ID: uuid.New().String(), SchoolID: m.SchoolID, StudentID: m.StudentID, EnrolledAt: m.EnrolledAt.UTC()}
	const q = `INSERT INTO school_students (id, school_id, student_id, enrolled_at) VALUES (:id, :school_id, :student_id, :enrolled_at)`
	if _, err := core.Executor(repo.exec, exec).NamedExecContext(ctx, q, row); err != nil {
		return school.Member{}, trapUniqueErr(err, school.ErrAlreadyMember, "adding student to roster")
	}
	return row.model(), nil
}

func (repo *schoolRepository) RemoveMember(ctx context.Context, schoolID, studentID string, exec ...core.DBExecutor) error {
	if _, err := uuid.Parse(studentID); err != nil {
		return school.ErrMemberNotFound
	}
	const q = `DELETE FROM school_students WHERE school_id = $1 AND student_id = $2`
	res, err := core.Executor(repo.exec, exec).ExecContext(ctx, q, schoolID, studentID)
	if err != nil {
		return errors.Wrap(err, "removing student from roster")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return school.ErrMemberNotFound
	}
	return nil
}

func (repo *schoolRepository) QueryMembers(ctx context.Context, schoolID string, exec ...core.DBExecutor) ([]school.Member, error) {
	var rows []memberRow
	const q = `SELECT id, school_id, student_id, enrolled_at FROM school_students
		WHERE school_id = $1 ORDER BY enrolled_at ASC, id ASC`
	if err := core.Executor(repo.exec, exec).SelectContext(ctx, &rows, q, schoolID); err != nil {
		return nil, errors.Wrap(err, "querying roster")
	}
	members := make([]school.Member, 0, len(rows))
	for _, r := range rows {
		members = append(members, r.model())
	}
	return members, nil
}
