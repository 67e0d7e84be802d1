package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/upskillhub/upskill/core"
	"github.com/upskillhub/upskill/core/student"
)

const studentColumns = `id, user_id, phone, to_char(date_of_birth, 'YYYY-MM-DD') AS date_of_birth, school_name, grade_level, bio,
	skill_tracks, interests, onboarding_completed, created_at, updated_at`

type studentRow struct {
	ID                  string         `db:"id"`
	UserID              string         `db:"user_id"`
	Phone               null.String    `db:"phone"`
	DateOfBirth         null.String    `db:"date_of_birth"`
	SchoolName          null.String    `db:"school_name"`
	GradeLevel          null.String    `db:"grade_level"`
	Bio                 null.String    `db:"bio"`
	SkillTracks         pq.StringArray `db:"skill_tracks"`
	Interests           pq.StringArray `db:"interests"`
	OnboardingCompleted bool           `db:"onboarding_completed"`
	CreatedAt           time.Time      `db:"created_at"`
	UpdatedAt           time.Time      `db:"updated_at"`
}

func newStudentRow(p student.Profile) studentRow {
	tracks, interests := p.SkillTracks, p.Interests
	if tracks == nil {
		tracks = []string{}
	}
	if interests == nil {
		interests = []string{}
	}
	return studentRow{
		ID:                  p.ID,
		UserID:              p.UserID,
		Phone:               nullString(p.Phone),
		DateOfBirth:         nullString(p.DateOfBirth),
		SchoolName:          nullString(p.SchoolName),
		GradeLevel:          nullString(p.GradeLevel),
		Bio:                 nullString(p.Bio),
		SkillTracks:         tracks,
		Interests:           interests,
		OnboardingCompleted: p.OnboardingCompleted,
		CreatedAt:           p.CreatedAt.UTC(),
		UpdatedAt:           p.UpdatedAt.UTC(),
	}
}

func (r studentRow) model() student.Profile {
	return student.Profile{
		ID:                  r.ID,
		UserID:              r.UserID,
		Phone:               r.Phone.String,
		DateOfBirth:         r.DateOfBirth.String,
		SchoolName:          r.SchoolName.String,
		GradeLevel:          r.GradeLevel.String,
		Bio:                 r.Bio.String,
		SkillTracks:         []string(r.SkillTracks),
		Interests:           []string(r.Interests),
		OnboardingCompleted: r.OnboardingCompleted,
		CreatedAt:           r.CreatedAt.UTC(),
		UpdatedAt:           r.UpdatedAt.UTC(),
	}
}

type studentRepository struct {
	exec core.DBExecutor
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(exec core.DBExecutor) student.Repository {
	return &studentRepository{exec: exec}
}

func (repo *studentRepository) GetProfile(ctx context.Context, filter student.GetFilter, exec ...core.DBExecutor) (student.Profile, error) {
	var (
		row studentRow
		err error
	)
	exe := core.Executor(repo.exec, exec)
	switch {
	case filter.ID != "":
		if _, err = uuid.Parse(filter.ID); err != nil {
			return student.Profile{}, student.ErrNotFound
		}
		err = exe.GetContext(ctx, &row, "SELECT "+studentColumns+" FROM student_profiles WHERE id = $1", filter.ID)
	case filter.UserID != "":
		err = exe.GetContext(ctx, &row, "SELECT "+studentColumns+" FROM student_profiles WHERE user_id = $1", filter.UserID)
	default:
		return student.Profile{}, student.ErrNotFound
	}
	if err != nil {
		return student.Profile{}, trapNoRowsErr(err, student.ErrNotFound, "finding student profile")
	}
	return row.model(), nil
}

func (repo *studentRepository) QueryProfiles(ctx context.Context, ids []string, exec ...core.DBExecutor) ([]student.Profile, error) {
	var rows []studentRow
	q := "SELECT " + studentColumns + " FROM student_profiles WHERE id = ANY($1::uuid[]) ORDER BY id"
	if err := core.Executor(repo.exec, exec).SelectContext(ctx, &rows, q, pq.Array(ids)); err != nil {
		return nil, errors.Wrap(err, "querying student profiles")
	}
	profiles := make([]student.Profile, 0, len(rows))
	for _, r := range rows {
		profiles = append(profiles, r.model())
	}
	return profiles, nil
}

func (repo *studentRepository) UpsertProfile(ctx context.Context, p student.Profile, exec ...core.DBExecutor) (student.Profile, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	row := newStudentRow(p)
	q := `INSERT INTO student_profiles (
			id, user_id, phone, date_of_birth, school_name, grade_level, bio,
			skill_tracks, interests, onboarding_completed, created_at, updated_at
		) VALUES ($1, $2, $3, $4::date, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (user_id) DO UPDATE SET
			phone = EXCLUDED.phone, date_of_birth = EXCLUDED.date_of_birth, school_name = EXCLUDED.school_name,
			grade_level = EXCLUDED.grade_level, bio = EXCLUDED.bio, skill_tracks = EXCLUDED.skill_tracks,
			interests = EXCLUDED.interests, onboarding_completed = EXCLUDED.onboarding_completed,
			updated_at = EXCLUDED.updated_at
		RETURNING ` + studentColumns

	var saved studentRow
	err := core.Executor(repo.exec, exec).GetContext(ctx, &saved, q,
		row.ID, row.UserID, row.Phone, row.DateOfBirth, row.SchoolName, row.GradeLevel, row.Bio,
		row.SkillTracks, row.Interests, row.OnboardingCompleted, row.CreatedAt, row.UpdatedAt,
	)
	if err != nil {
		return student.Profile{}, errors.Wrap(err, "upserting student profile")
	}
	return saved.model(), nil
}
