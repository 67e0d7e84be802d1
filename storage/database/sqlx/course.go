package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/upskillhub/upskill/core"
	"github.com/upskillhub/upskill/core/course"
)

const (
	courseColumns     = `id, title, description, skill_track, instructor_name, thumbnail_url, total_lessons, created_at, updated_at`
	enrollmentColumns = `id, student_id, course_id, lessons_completed, progress, enrolled_at, updated_at`
)

type courseRow struct {
	ID             string      `db:"id"`
	Title          string      `db:"title"`
	Description    null.String `db:"description"`
	SkillTrack     string      `db:"skill_track"`
	InstructorName null.String `db:"instructor_name"`
	ThumbnailURL   null.String `db:"thumbnail_url"`
	TotalLessons   int         `db:"total_lessons"`
	CreatedAt      time.Time   `db:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at"`
}

func newCourseRow(c course.Course) courseRow {
	return courseRow{
		ID:             c.ID,
		Title:          c.Title,
		Description:    nullString(c.Description),
		SkillTrack:     c.SkillTrack,
		InstructorName: nullString(c.InstructorName),
		ThumbnailURL:   nullString(c.ThumbnailURL),
		TotalLessons:   c.TotalLessons,
		CreatedAt:      c.CreatedAt.UTC(),
		UpdatedAt:      c.UpdatedAt.UTC(),
	}
}

func (r courseRow) model() course.Course {
	return course.Course{
		ID:             r.ID,
		Title:          r.Title,
		Description:    r.Description.String,
		SkillTrack:     r.SkillTrack,
		InstructorName: r.InstructorName.String,
		ThumbnailURL:   r.ThumbnailURL.String,
		TotalLessons:   r.TotalLessons,
		CreatedAt:      r.CreatedAt.UTC(),
		UpdatedAt:      r.UpdatedAt.UTC(),
	}
}

type enrollmentRow struct {
	ID               string    `db:"id"`
	StudentID        string    `db:"student_id"`
	CourseID         string    `db:"course_id"`
	LessonsCompleted int       `db:"lessons_completed"`
	Progress         int       `db:"progress"`
	EnrolledAt       time.Time `db:"enrolled_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

func newEnrollmentRow(e course.Enrollment) enrollmentRow {
	return enrollmentRow{
		ID:               e.ID,
		StudentID:        e.StudentID,
		CourseID:         e.CourseID,
		LessonsCompleted: e.LessonsCompleted,
		Progress:         e.Progress,
		EnrolledAt:       e.EnrolledAt.UTC(),
		UpdatedAt:        e.UpdatedAt.UTC(),
	}
}

func (r enrollmentRow) model() course.Enrollment {
	return course.Enrollment{
		ID:               r.ID,
		StudentID:        r.StudentID,
		CourseID:         r.CourseID,
		LessonsCompleted: r.LessonsCompleted,
		Progress:         r.Progress,
		EnrolledAt:       r.EnrolledAt.UTC(),
		UpdatedAt:        r.UpdatedAt.UTC(),
	}
}

type courseRepository struct {
	exec core.DBExecutor
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(exec core.DBExecutor) course.Repository {
	return &courseRepository{exec: exec}
}

func (repo *courseRepository) QueryCourses(ctx context.Context, filter *course.QueryFilter, exec ...core.DBExecutor) ([]course.Course, error) {
	exe := core.Executor(repo.exec, exec)
	w := &where{}
	if filter != nil {
		if filter.IDs != nil {
			w.add("id = ANY(?::uuid[])", pq.Array(filter.IDs))
		}
		if len(filter.SkillTrack) > 0 {
			w.add("skill_track = ANY(?::text[])", pq.Array(filter.SkillTrack))
		}
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			w.add("(title ILIKE ? OR description ILIKE ?)", val, val)
		}
	}

	var rows []courseRow
	q := exe.Rebind("SELECT " + courseColumns + " FROM courses" + w.String() + " ORDER BY title ASC, id ASC")
	if err := exe.SelectContext(ctx, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	courses := make([]course.Course, 0, len(rows))
	for _, r := range rows {
		courses = append(courses, r.model())
	}
	return courses, nil
}

func (repo *courseRepository) GetCourse(ctx context.Context, id string, exec ...core.DBExecutor) (course.Course, error) {
	if _, err := uuid.Parse(id); err != nil {
		return course.Course{}, course.ErrNotFound
	}
	var row courseRow
	err := core.Executor(repo.exec, exec).GetContext(ctx, &row, "SELECT "+courseColumns+" FROM courses WHERE id = $1", id)
	if err != nil {
		return course.Course{}, trapNoRowsErr(err, course.ErrNotFound, "finding course")
	}
	return row.model(), nil
}

func (repo *courseRepository) CreateCourse(ctx context.Context, c course.Course, exec ...core.DBExecutor) (course.Course, error) {
	c.ID = uuid.New().String()
	row := newCourseRow(c)
	const q = `INSERT INTO courses (` + courseColumns + `)
		VALUES (:id, :title, :description, :skill_track, :instructor_name, :thumbnail_url, :total_lessons, :created_at, :updated_at)`
	if _, err := core.Executor(repo.exec, exec).NamedExecContext(ctx, q, row); err != nil {
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return row.model(), nil
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, c course.Course, exec ...core.DBExecutor) (course.Course, error) {
	row := newCourseRow(c)
	const q = `UPDATE courses SET
		title = :title, description = :description, skill_track = :skill_track, instructor_name = :instructor_name,
		thumbnail_url = :thumbnail_url, total_lessons = :total_lessons, updated_at = :updated_at
		WHERE id = :id`
	res, err := core.Executor(repo.exec, exec).NamedExecContext(ctx, q, row)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "updating course")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return course.Course{}, course.ErrNotFound
	}
	return row.model(), nil
}

func (repo *courseRepository) DeleteCourse(ctx context.Context, id string, exec ...core.DBExecutor) error {
	if _, err := uuid.Parse(id); err != nil {
		return course.ErrNotFound
	}
	res, err := core.Executor(repo.exec, exec).ExecContext(ctx, "DELETE FROM courses WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "deleting course")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return course.ErrNotFound
	}
	return nil
}

func (repo *courseRepository) CreateEnrollment(ctx context.Context, e course.Enrollment, exec ...core.DBExecutor) (course.Enrollment, error) {
	e.ID = uuid.New().String()
	row := newEnrollmentRow(e)
	const q = `INSERT INTO student_enrollments (` + enrollmentColumns + `)
		VALUES (:id, :student_id, :course_id, :lessons_completed, :progress, :enrolled_at, :updated_at)`
	if _, err := core.Executor(repo.exec, exec).NamedExecContext(ctx, q, row); err != nil {
		return course.Enrollment{}, trapUniqueErr(err, course.ErrAlreadyEnrolled, "inserting enrollment")
	}
	return row.model(), nil
}

func (repo *courseRepository) GetEnrollment(ctx context.Context, id string, exec ...core.DBExecutor) (course.Enrollment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return course.Enrollment{}, course.ErrEnrollmentNotFound
	}
	var row enrollmentRow
	q := "SELECT " + enrollmentColumns + " FROM student_enrollments WHERE id = $1"
	if err := core.Executor(repo.exec, exec).GetContext(ctx, &row, q, id); err != nil {
		return course.Enrollment{}, trapNoRowsErr(err, course.ErrEnrollmentNotFound, "finding enrollment")
	}
	return row.model(), nil
}

func (repo *courseRepository) LockEnrollment(ctx context.Context, id string, exec ...core.DBExecutor) (course.Enrollment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return course.Enrollment{}, course.ErrEnrollmentNotFound
	}
	var row enrollmentRow
	q := "SELECT " + enrollmentColumns + " FROM student_enrollments WHERE id = $1 FOR UPDATE"
	if err := core.Executor(repo.exec, exec).GetContext(ctx, &row, q, id); err != nil {
		return course.Enrollment{}, trapNoRowsErr(err, course.ErrEnrollmentNotFound, "locking enrollment")
	}
	return row.model(), nil
}

func (repo *courseRepository) UpdateEnrollment(ctx context.Context, e course.Enrollment, exec ...core.DBExecutor) (course.Enrollment, error) {
	row := newEnrollmentRow(e)
	const q = `UPDATE student_enrollments SET
		lessons_completed = :lessons_completed, progress = :progress, updated_at = :updated_at
		WHERE id = :id`
	res, err := core.Executor(repo.exec, exec).NamedExecContext(ctx, q, row)
	if err != nil {
		return course.Enrollment{}, errors.Wrap(err, "updating enrollment")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return course.Enrollment{}, course.ErrEnrollmentNotFound
	}
	updated := row.model()
	updated.Course = e.Course
	return updated, nil
}

func (repo *courseRepository) QueryEnrollments(ctx context.Context, filter course.EnrollmentFilter, exec ...core.DBExecutor) ([]course.Enrollment, error) {
	exe := core.Executor(repo.exec, exec)
	w := &where{}
	if filter.StudentIDs != nil {
		w.add("student_id = ANY(?::uuid[])", pq.Array(filter.StudentIDs))
	}
	if filter.CourseID != "" {
		w.add("course_id = ?", filter.CourseID)
	}

	var rows []enrollmentRow
	q := exe.Rebind("SELECT " + enrollmentColumns + " FROM student_enrollments" + w.String() + " ORDER BY enrolled_at DESC, id ASC")
	if err := exe.SelectContext(ctx, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "querying enrollments")
	}
	enrollments := make([]course.Enrollment, 0, len(rows))
	for _, r := range rows {
		enrollments = append(enrollments, r.model())
	}
	return enrollments, nil
}

func (repo *courseRepository) CreateLessonCompletion(ctx context.Context, lc course.LessonCompletion, exec ...core.DBExecutor) error {
	lc.ID = uuid.New().String()
	const q = `INSERT INTO lesson_completions (id, enrollment_id, lessons, completed_at) VALUES ($1, $2, $3, $4)`
	_, err := core.Executor(repo.exec, exec).ExecContext(ctx, q, lc.ID, lc.EnrollmentID, lc.Lessons, lc.CompletedAt.UTC())
	return errors.Wrap(err, "inserting lesson completion")
}

func (repo *courseRepository) QueryLessonCompletions(ctx context.Context, enrollmentIDs []string, since time.Time, exec ...core.DBExecutor) ([]course.LessonCompletion, error) {
	var rows []struct {
		ID           string    `db:"id"`
		EnrollmentID string    `db:"enrollment_id"`
		Lessons      int       `db:"lessons"`
		CompletedAt  time.Time `db:"completed_at"`
	}
	const q = `SELECT id, enrollment_id, lessons, completed_at FROM lesson_completions
		WHERE enrollment_id = ANY($1::uuid[]) AND completed_at >= $2
		ORDER BY completed_at ASC`
	if err := core.Executor(repo.exec, exec).SelectContext(ctx, &rows, q, pq.Array(enrollmentIDs), since.UTC()); err != nil {
		return nil, errors.Wrap(err, "querying lesson completions")
	}
	completions := make([]course.LessonCompletion, 0, len(rows))
	for _, r := range rows {
		completions = append(completions, course.LessonCompletion{
			ID:           r.ID,
			EnrollmentID: r.EnrollmentID,
			Lessons:      r.Lessons,
			CompletedAt:  r.CompletedAt.UTC(),
		})
	}
	return completions, nil
}
