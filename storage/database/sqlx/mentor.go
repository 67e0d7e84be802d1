package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/upskillhub/upskill/core"
	"github.com/upskillhub/upskill/core/mentor"
)

const (
	mentorColumns = `id, user_id, phone, bio, expertise_areas, years_of_experience, hourly_rate, linkedin_url, portfolio_url,
	is_available, verification_status, onboarding_completed, created_at, updated_at`
	qualificationColumns = `id, mentor_id, title, institution, year_obtained, certificate_url, is_verified, created_at`
	sessionColumns       = `id, mentor_id, student_id, title, description, to_char(session_date, 'YYYY-MM-DD') AS session_date,
	start_time, end_time, session_type, max_participants, meeting_link, status, created_at, updated_at`
)

type mentorRow struct {
	ID                  string         `db:"id"`
	UserID              string         `db:"user_id"`
	Phone               null.String    `db:"phone"`
	Bio                 null.String    `db:"bio"`
	ExpertiseAreas      pq.StringArray `db:"expertise_areas"`
	YearsOfExperience   null.Int       `db:"years_of_experience"`
	HourlyRate          null.Float64   `db:"hourly_rate"`
	LinkedinURL         null.String    `db:"linkedin_url"`
	PortfolioURL        null.String    `db:"portfolio_url"`
	IsAvailable         bool           `db:"is_available"`
	VerificationStatus  string         `db:"verification_status"`
	OnboardingCompleted bool           `db:"onboarding_completed"`
	CreatedAt           time.Time      `db:"created_at"`
	UpdatedAt           time.Time      `db:"updated_at"`
}

func (r mentorRow) model() mentor.Profile {
	return mentor.Profile{
		ID:                  r.ID,
		UserID:              r.UserID,
		Phone:               r.Phone.String,
		Bio:                 r.Bio.String,
		ExpertiseAreas:      []string(r.ExpertiseAreas),
		YearsOfExperience:   r.YearsOfExperience.Int,
		HourlyRate:          r.HourlyRate.Float64,
		LinkedinURL:         r.LinkedinURL.String,
		PortfolioURL:        r.PortfolioURL.String,
		IsAvailable:         r.IsAvailable,
		VerificationStatus:  r.VerificationStatus,
		OnboardingCompleted: r.OnboardingCompleted,
		CreatedAt:           r.CreatedAt.UTC(),
		UpdatedAt:           r.UpdatedAt.UTC(),
	}
}

type qualificationRow struct {
	ID             string      `db:"id"`
	MentorID       string      `db:"mentor_id"`
	Title          string      `db:"title"`
	Institution    string      `db:"institution"`
	YearObtained   null.Int    `db:"year_obtained"`
	CertificateURL null.String `db:"certificate_url"`
	IsVerified     bool        `db:"is_verified"`
	CreatedAt      time.Time   `db:"created_at"`
}

func newQualificationRow(q mentor.Qualification) qualificationRow {
	return qualificationRow{
		ID:             q.ID,
		MentorID:       q.MentorID,
		Title:          q.Title,
		Institution:    q.Institution,
		YearObtained:   null.NewInt(q.YearObtained, q.YearObtained != 0),
		CertificateURL: nullString(q.CertificateURL),
		IsVerified:     q.IsVerified,
		CreatedAt:      q.CreatedAt.UTC(),
	}
}

func (r qualificationRow) model() mentor.Qualification {
	return mentor.Qualification{
		ID:             r.ID,
		MentorID:       r.MentorID,
		Title:          r.Title,
		Institution:    r.Institution,
		YearObtained:   r.YearObtained.Int,
		CertificateURL: r.CertificateURL.String,
		IsVerified:     r.IsVerified,
		CreatedAt:      r.CreatedAt.UTC(),
	}
}

type sessionRow struct {
	ID              string      `db:"id"`
	MentorID        string      `db:"mentor_id"`
	StudentID       null.String `db:"student_id"`
	Title           string      `db:"title"`
	Description     null.String `db:"description"`
	SessionDate     string      `db:"session_date"`
	StartTime       string      `db:"start_time"`
	EndTime         string      `db:"end_time"`
	SessionType     string      `db:"session_type"`
	MaxParticipants int         `db:"max_participants"`
	MeetingLink     null.String `db:"meeting_link"`
	Status          string      `db:"status"`
	CreatedAt       time.Time   `db:"created_at"`
	UpdatedAt       time.Time   `db:"updated_at"`
}

func newSessionRow(s mentor.Session) sessionRow {
	return sessionRow{
		ID:              s.ID,
		MentorID:        s.MentorID,
		StudentID:       nullString(s.StudentID),
		Title:           s.Title,
		Description:     nullString(s.Description),
		SessionDate:     s.SessionDate,
		StartTime:       s.StartTime,
		EndTime:         s.EndTime,
		SessionType:     s.SessionType,
		MaxParticipants: s.MaxParticipants,
		MeetingLink:     nullString(s.MeetingLink),
		Status:          s.Status,
		CreatedAt:       s.CreatedAt.UTC(),
		UpdatedAt:       s.UpdatedAt.UTC(),
	}
}

func (r sessionRow) model() mentor.Session {
	return mentor.Session{
		ID:              r.ID,
		MentorID:        r.MentorID,
		StudentID:       r.StudentID.String,
		Title:           r.Title,
		Description:     r.Description.String,
		SessionDate:     r.SessionDate,
		StartTime:       r.StartTime,
		EndTime:         r.EndTime,
		SessionType:     r.SessionType,
		MaxParticipants: r.MaxParticipants,
		MeetingLink:     r.MeetingLink.String,
		Status:          r.Status,
		CreatedAt:       r.CreatedAt.UTC(),
		UpdatedAt:       r.UpdatedAt.UTC(),
	}
}

type mentorRepository struct {
	exec core.DBExecutor
}

var _ mentor.Repository = (*mentorRepository)(nil) // interface compliance check

func NewMentorRepository(exec core.DBExecutor) mentor.Repository {
	return &mentorRepository{exec: exec}
}

func (repo *mentorRepository) GetProfile(ctx context.Context, filter mentor.GetFilter, exec ...core.DBExecutor) (mentor.Profile, error) {
	var (
		row mentorRow
		err error
	)
	exe := core.Executor(repo.exec, exec)
	switch {
	case filter.ID != "":
		if _, err = uuid.Parse(filter.ID); err != nil {
			return mentor.Profile{}, mentor.ErrNotFound
		}
		err = exe.GetContext(ctx, &row, "SELECT "+mentorColumns+" FROM mentor_profiles WHERE id = $1", filter.ID)
	case filter.UserID != "":
		err = exe.GetContext(ctx, &row, "SELECT "+mentorColumns+" FROM mentor_profiles WHERE user_id = $1", filter.UserID)
	default:
		return mentor.Profile{}, mentor.ErrNotFound
	}
	if err != nil {
		return mentor.Profile{}, trapNoRowsErr(err, mentor.ErrNotFound, "finding mentor profile")
	}
	return row.model(), nil
}

func (repo *mentorRepository) QueryProfiles(ctx context.Context, verificationStatus string, exec ...core.DBExecutor) ([]mentor.Profile, error) {
	exe := core.Executor(repo.exec, exec)
	w := &where{}
	if verificationStatus != "" {
		w.add("verification_status = ?", verificationStatus)
	}
	var rows []mentorRow
	q := exe.Rebind("SELECT " + mentorColumns + " FROM mentor_profiles" + w.String() + " ORDER BY created_at ASC, id ASC")
	if err := exe.SelectContext(ctx, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "querying mentor profiles")
	}
	profiles := make([]mentor.Profile, 0, len(rows))
	for _, r := range rows {
		profiles = append(profiles, r.model())
	}
	return profiles, nil
}

func (repo *mentorRepository) UpsertProfile(ctx context.Context, p mentor.Profile, exec ...core.DBExecutor) (mentor.Profile, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.VerificationStatus == "" {
		p.VerificationStatus = mentor.StatusPending
	}
	areas := p.ExpertiseAreas
	if areas == nil {
		areas = []string{}
	}
	q := `INSERT INTO mentor_profiles (` + mentorColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (user_id) DO UPDATE SET
			phone = EXCLUDED.phone, bio = EXCLUDED.bio, expertise_areas = EXCLUDED.expertise_areas,
			years_of_experience = EXCLUDED.years_of_experience, hourly_rate = EXCLUDED.hourly_rate,
			linkedin_url = EXCLUDED.linkedin_url, portfolio_url = EXCLUDED.portfolio_url,
			is_available = EXCLUDED.is_available, verification_status = EXCLUDED.verification_status,
			onboarding_completed = EXCLUDED.onboarding_completed, updated_at = EXCLUDED.updated_at
		RETURNING ` + mentorColumns

	var saved mentorRow
	err := core.Executor(repo.exec, exec).GetContext(ctx, &saved, q,
		p.ID, p.UserID, nullString(p.Phone), nullString(p.Bio), pq.StringArray(areas),
		null.NewInt(p.YearsOfExperience, p.YearsOfExperience != 0), p.HourlyRate,
		nullString(p.LinkedinURL), nullString(p.PortfolioURL), p.IsAvailable, p.VerificationStatus,
		p.OnboardingCompleted, p.CreatedAt.UTC(), p.UpdatedAt.UTC(),
	)
	if err != nil {
		return mentor.Profile{}, errors.Wrap(err, "upserting mentor profile")
	}
	return saved.model(), nil
}

func (repo *mentorRepository) ReplaceQualifications(ctx context.Context, mentorID string, quals []mentor.Qualification, exec ...core.DBExecutor) ([]mentor.Qualification, error) {
	exe := core.Executor(repo.exec, exec)
	if _, err := exe.ExecContext(ctx, "DELETE FROM mentor_qualifications WHERE mentor_id = $1", mentorID); err != nil {
		return nil, errors.Wrap(err, "deleting qualifications")
	}

	const q = `INSERT INTO mentor_qualifications (` + qualificationColumns + `)
		VALUES (:id, :mentor_id, :title, :institution, :year_obtained, :certificate_url, :is_verified, :created_at)`
	saved := make([]mentor.Qualification, 0, len(quals))
	for _, qual := range quals {
		qual.ID = uuid.New().String()
		qual.MentorID = mentorID
		row := newQualificationRow(qual)
		if _, err := exe.NamedExecContext(ctx, q, row); err != nil {
			return nil, errors.Wrap(err, "inserting qualification")
		}
		saved = append(saved, row.model())
	}
	return saved, nil
}

func (repo *mentorRepository) QueryQualifications(ctx context.Context, mentorID string, exec ...core.DBExecutor) ([]mentor.Qualification, error) {
	var rows []qualificationRow
	q := "SELECT " + qualificationColumns + " FROM mentor_qualifications WHERE mentor_id = $1 ORDER BY created_at ASC, id ASC"
	if err := core.Executor(repo.exec, exec).SelectContext(ctx, &rows, q, mentorID); err != nil {
		return nil, errors.Wrap(err, "querying qualifications")
	}
	quals := make([]mentor.Qualification, 0, len(rows))
	for _, r := range rows {
		quals = append(quals, r.model())
	}
	return quals, nil
}

func (repo *mentorRepository) CreateSession(ctx context.Context, s mentor.Session, exec ...core.DBExecutor) (mentor.Session, error) {
	s.ID = uuid.New().String()
	row := newSessionRow(s)
	const q = `INSERT INTO mentor_sessions (
			id, mentor_id, student_id, title, description, session_date, start_time, end_time,
			session_type, max_participants, meeting_link, status, created_at, updated_at
		) VALUES (
			:id, :mentor_id, :student_id, :title, :description, CAST(:session_date AS DATE), :start_time, :end_time,
			:session_type, :max_participants, :meeting_link, :status, :created_at, :updated_at
		)`
	if _, err := core.Executor(repo.exec, exec).NamedExecContext(ctx, q, row); err != nil {
		return mentor.Session{}, errors.Wrap(err, "inserting session")
	}
	return row.model(), nil
}

func (repo *mentorRepository) GetSession(ctx context.Context, id string, exec ...core.DBExecutor) (mentor.Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return mentor.Session{}, mentor.ErrSessionNotFound
	}
	var row sessionRow
	q := "SELECT " + sessionColumns + " FROM mentor_sessions WHERE id = $1"
	if err := core.Executor(repo.exec, exec).GetContext(ctx, &row, q, id); err != nil {
		return mentor.Session{}, trapNoRowsErr(err, mentor.ErrSessionNotFound, "finding session")
	}
	return row.model(), nil
}

func (repo *mentorRepository) UpdateSession(ctx context.Context, s mentor.Session, exec ...core.DBExecutor) (mentor.Session, error) {
	row := newSessionRow(s)
	const q = `UPDATE mentor_sessions SET
		student_id = :student_id, title = :title, description = :description, session_date = CAST(:session_date AS DATE),
		start_time = :start_time, end_time = :end_time, session_type = :session_type,
		max_participants = :max_participants, meeting_link = :meeting_link, status = :status, updated_at = :updated_at
		WHERE id = :id`
	res, err := core.Executor(repo.exec, exec).NamedExecContext(ctx, q, row)
	if err != nil {
		return mentor.Session{}, errors.Wrap(err, "updating session")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return mentor.Session{}, mentor.ErrSessionNotFound
	}
	return row.model(), nil
}

const bookSessionQuery = `UPDATE mentor_sessions SET status = $1, student_id = $2, updated_at = $3
	WHERE id = $4 AND status = $5
	RETURNING ` + sessionColumns

func (repo *mentorRepository) BookSession(ctx context.Context, id, studentID string, at time.Time, exec ...core.DBExecutor) (mentor.Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return mentor.Session{}, mentor.ErrSessionNotFound
	}
	var row sessionRow
	err := core.Executor(repo.exec, exec).GetContext(
		ctx, &row, bookSessionQuery, mentor.SessionBooked, studentID, at, id, mentor.SessionAvailable,
	)
	if err != nil {
		return mentor.Session{}, trapNoRowsErr(err, mentor.ErrSessionNotAvailable, "booking session")
	}
	return row.model(), nil
}

func (repo *mentorRepository) DeleteSession(ctx context.Context, id string, exec ...core.DBExecutor) error {
	if _, err := uuid.Parse(id); err != nil {
		return mentor.ErrSessionNotFound
	}
	res, err := core.Executor(repo.exec, exec).ExecContext(ctx, "DELETE FROM mentor_sessions WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "deleting session")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return mentor.ErrSessionNotFound
	}
	return nil
}

func (repo *mentorRepository) QuerySessions(ctx context.Context, filter mentor.SessionFilter, exec ...core.DBExecutor) ([]mentor.Session, error) {
	exe := core.Executor(repo.exec, exec)
	w := &where{}
	if filter.MentorID != "" {
		w.add("mentor_id = ?", filter.MentorID)
	}
	if len(filter.Statuses) > 0 {
		w.add("status = ANY(?::text[])", pq.Array(filter.Statuses))
	}
	if filter.FromDate != "" {
		w.add("session_date >= CAST(? AS DATE)", filter.FromDate)
	}

	var rows []sessionRow
	q := exe.Rebind("SELECT " + sessionColumns + " FROM mentor_sessions" + w.String() + " ORDER BY session_date ASC, start_time ASC, id ASC")
	if err := exe.SelectContext(ctx, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "querying sessions")
	}
	sessions := make([]mentor.Session, 0, len(rows))
	for _, r := range rows {
		sessions = append(sessions, r.model())
	}
	return sessions, nil
}
