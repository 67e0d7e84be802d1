package course

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/upskillhub/upskill/core"
)

var (
	// errors
	ErrNotFound           = errors.New("course not found")
	ErrEnrollmentNotFound = errors.New("enrollment not found")
	ErrAlreadyEnrolled    = errors.New("already enrolled in this course")
)

type (
	Repository interface {
		QueryCourses(ctx context.Context, filter *QueryFilter, exec ...core.DBExecutor) ([]Course, error)
		GetCourse(ctx context.Context, id string, exec ...core.DBExecutor) (Course, error)
		CreateCourse(ctx context.Context, c Course, exec ...core.DBExecutor) (Course, error)
		UpdateCourse(ctx context.Context, c Course, exec ...core.DBExecutor) (Course, error)
		DeleteCourse(ctx context.Context, id string, exec ...core.DBExecutor) error

		// CreateEnrollment returns ErrAlreadyEnrolled if the (student, course) pair exists.
		CreateEnrollment(ctx context.Context, e Enrollment, exec ...core.DBExecutor) (Enrollment, error)
		GetEnrollment(ctx context.Context, id string, exec ...core.DBExecutor) (Enrollment, error)
		// LockEnrollment is GetEnrollment holding the row until `exec`'s transaction ends.
		LockEnrollment(ctx context.Context, id string, exec ...core.DBExecutor) (Enrollment, error)
		UpdateEnrollment(ctx context.Context, e Enrollment, exec ...core.DBExecutor) (Enrollment, error)
		QueryEnrollments(ctx context.Context, filter EnrollmentFilter, exec ...core.DBExecutor) ([]Enrollment, error)

		CreateLessonCompletion(ctx context.Context, lc LessonCompletion, exec ...core.DBExecutor) error
		// QueryLessonCompletions returns the completions of the enrollments that happened at or after `since`.
		QueryLessonCompletions(ctx context.Context, enrollmentIDs []string, since time.Time, exec ...core.DBExecutor) ([]LessonCompletion, error)
	}

	// ProgressObserver is notified after a student completed lessons.
	ProgressObserver interface {
		EvaluateProgress(ctx context.Context, studentID string) error
	}

	Service interface {
		ListCourses(ctx context.Context, filter *QueryFilter) ([]Course, error)
		GetCourse(ctx context.Context, id string) (Course, error)
		CreateCourse(ctx context.Context, nc NewCourse) (Course, error)
		UpdateCourse(ctx context.Context, id string, uc UpdateCourse) (Course, error)
		DeleteCourse(ctx context.Context, id string) error

		Enroll(ctx context.Context, studentID, courseID string) (Enrollment, error)
		// CompleteLessons adds `n` completed lessons to one of the student's enrollments and returns it updated.
		CompleteLessons(ctx context.Context, studentID, enrollmentID string, n int) (Enrollment, error)
		StudentEnrollments(ctx context.Context, studentID string) ([]Enrollment, error)
		EnrollmentsForStudents(ctx context.Context, studentIDs []string) ([]Enrollment, error)
	}

	service struct {
		repo     Repository
		tx       core.Transactor
		observer ProgressObserver
		logger   core.Logger
	}
)

var _ Service = (*service)(nil) // interface compliance check

func NewService(repo Repository, tx core.Transactor, observer ProgressObserver, logger core.Logger) Service {
	return &service{repo: repo, tx: tx, observer: observer, logger: logger}
}

func (svc *service) ListCourses(ctx context.Context, filter *QueryFilter) ([]Course, error) {
	if filter != nil {
		filter.Search = core.CleanString(filter.Search)
		filter.SkillTrack = core.CleanStrings(filter.SkillTrack, true /* lower */)
	}
	return svc.repo.QueryCourses(ctx, filter)
}

func (svc *service) GetCourse(ctx context.Context, id string) (Course, error) {
	return svc.repo.GetCourse(ctx, id)
}

func (svc *service) CreateCourse(ctx context.Context, nc NewCourse) (Course, error) {
	now := time.Now().UTC()
	return svc.repo.CreateCourse(ctx, Course{
		Title:          nc.Title,
		Description:    nc.Description,
		SkillTrack:     nc.SkillTrack,
		InstructorName: nc.InstructorName,
		ThumbnailURL:   nc.ThumbnailURL,
		TotalLessons:   nc.TotalLessons,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
}

// UpdateCourse saves the course and, when the lesson count changed, re-clamps its enrollments.
func (svc *service) UpdateCourse(ctx context.Context, id string, uc UpdateCourse) (Course, error) {
	var updated Course
	err := svc.tx.InTx(ctx, func(exec core.DBExecutor) error {
		crs, err := svc.repo.GetCourse(ctx, id, exec)
		if err != nil {
			return err
		}
		origTotal := crs.TotalLessons
		crs = uc.apply(crs)
		crs.UpdatedAt = time.Now().UTC()
		if updated, err = svc.repo.UpdateCourse(ctx, crs, exec); err != nil {
			return errors.Wrap(err, "updating course")
		}
		if origTotal == updated.TotalLessons {
			return nil
		}

		enrollments, err := svc.repo.QueryEnrollments(ctx, EnrollmentFilter{CourseID: id}, exec)
		if err != nil {
			return errors.Wrap(err, "querying enrollments")
		}
		for _, e := range enrollments {
			if !e.clamp(updated.TotalLessons) {
				continue
			}
			e.UpdatedAt = updated.UpdatedAt
			if _, err = svc.repo.UpdateEnrollment(ctx, e, exec); err != nil {
				return errors.Wrap(err, "updating enrollment")
			}
		}
		return nil
	})
	return updated, err
}

func (svc *service) DeleteCourse(ctx context.Context, id string) error {
	return svc.repo.DeleteCourse(ctx, id)
}

func (svc *service) Enroll(ctx context.Context, studentID, courseID string) (Enrollment, error) {
	crs, err := svc.repo.GetCourse(ctx, courseID)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Enrollment{}, core.NewValidationError(err, core.FieldError{Field: "course_id", Error: err.Error()})
		}
		return Enrollment{}, err
	}

	now := time.Now().UTC()
	enr, err := svc.repo.CreateEnrollment(ctx, Enrollment{
		StudentID:  studentID,
		CourseID:   crs.ID,
		EnrolledAt: now,
		UpdatedAt:  now,
	})
	if err != nil {
		if errors.Cause(err) == ErrAlreadyEnrolled {
			return Enrollment{}, core.NewValidationError(err, core.FieldError{Field: "course_id", Error: err.Error()})
		}
		return Enrollment{}, errors.Wrap(err, "creating enrollment")
	}
	enr.Course = &crs
	return enr, nil
}

func (svc *service) CompleteLessons(ctx context.Context, studentID, enrollmentID string, n int) (Enrollment, error) {
	if n <= 0 {
		return Enrollment{}, core.NewValidationError(errLessonsNotPositive, core.FieldError{Field: "lessons", Error: errLessonsNotPositive.Error()})
	}

	var enr Enrollment
	err := svc.tx.InTx(ctx, func(exec core.DBExecutor) error {
		var err error
		if enr, err = svc.repo.LockEnrollment(ctx, enrollmentID, exec); err != nil {
			return err
		}
		if enr.StudentID != studentID {
			return ErrEnrollmentNotFound
		}
		crs, err := svc.repo.GetCourse(ctx, enr.CourseID, exec)
		if err != nil {
			return errors.Wrap(err, "finding course")
		}

		added, _ := enr.Advance(n, crs.TotalLessons)
		now := time.Now().UTC()
		enr.UpdatedAt = now
		if enr, err = svc.repo.UpdateEnrollment(ctx, enr, exec); err != nil {
			return errors.Wrap(err, "updating enrollment")
		}
		enr.Course = &crs
		if added == 0 {
			return nil
		}
		return errors.Wrap(
			svc.repo.CreateLessonCompletion(ctx, LessonCompletion{EnrollmentID: enr.ID, Lessons: added, CompletedAt: now}, exec),
			"recording lesson completion",
		)
	})
	if err != nil {
		return Enrollment{}, err
	}

	if svc.observer != nil {
		if err = svc.observer.EvaluateProgress(ctx, studentID); err != nil {
			svc.logger.Error("evaluating student progress", err, map[string]interface{}{"student_id": studentID})
		}
	}
	return enr, nil
}

func (svc *service) StudentEnrollments(ctx context.Context, studentID string) ([]Enrollment, error) {
	return svc.EnrollmentsForStudents(ctx, []string{studentID})
}

// EnrollmentsForStudents returns the enrollments of the students, each with its Course.
func (svc *service) EnrollmentsForStudents(ctx context.Context, studentIDs []string) ([]Enrollment, error) {
	if len(studentIDs) == 0 {
		return []Enrollment{}, nil
	}
	enrollments, err := svc.repo.QueryEnrollments(ctx, EnrollmentFilter{StudentIDs: studentIDs})
	if err != nil {
		return nil, errors.Wrap(err, "querying enrollments")
	}
	if len(enrollments) == 0 {
		return enrollments, nil
	}

	courseIDs := make([]string, 0, len(enrollments))
	for _, e := range enrollments {
		courseIDs = append(courseIDs, e.CourseID)
	}
	courses, err := svc.repo.QueryCourses(ctx, &QueryFilter{IDs: core.CleanStrings(courseIDs)})
	if err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	byID := make(map[string]Course, len(courses))
	for _, c := range courses {
		byID[c.ID] = c
	}
	for i := range enrollments {
		if c, ok := byID[enrollments[i].CourseID]; ok {
			c := c
			enrollments[i].Course = &c
		}
	}
	return enrollments, nil
}
