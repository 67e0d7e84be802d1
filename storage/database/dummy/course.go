package dummydb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/upskillhub/upskill/core"
	"github.com/upskillhub/upskill/core/course"
)

type courseRepository struct {
	db *courseTable
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{db: db.course}
}

func (repo *courseRepository) QueryCourses(_ context.Context, filter *course.QueryFilter, _ ...core.DBExecutor) ([]course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	courses := make([]course.Course, 0, len(repo.db.courses))
	for _, c := range repo.db.courses {
		if filter != nil {
			if filter.IDs != nil && !contains(filter.IDs, c.ID) {
				continue
			}
			if len(filter.SkillTrack) > 0 && !contains(filter.SkillTrack, c.SkillTrack) {
				continue
			}
			if filter.Search != "" {
				s := strings.ToLower(filter.Search)
				if !strings.Contains(strings.ToLower(c.Title), s) && !strings.Contains(strings.ToLower(c.Description), s) {
					continue
				}
			}
		}
		courses = append(courses, *c)
	}
	sort.Slice(courses, func(i, j int) bool {
		if courses[i].Title != courses[j].Title {
			return courses[i].Title < courses[j].Title
		}
		return courses[i].ID < courses[j].ID
	})
	return courses, nil
}

func (repo *courseRepository) GetCourse(_ context.Context, id string, _ ...core.DBExecutor) (course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if c, ok := repo.db.courses[id]; ok {
		return *c, nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) CreateCourse(_ context.Context, c course.Course, _ ...core.DBExecutor) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	c.ID = uuid.New().String()
	repo.db.courses[c.ID] = &c
	return c, nil
}

func (repo *courseRepository) UpdateCourse(_ context.Context, c course.Course, _ ...core.DBExecutor) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.courses[c.ID]; !ok {
		return course.Course{}, course.ErrNotFound
	}
	repo.db.courses[c.ID] = &c
	return c, nil
}

func (repo *courseRepository) DeleteCourse(_ context.Context, id string, _ ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.courses[id]; !ok {
		return course.ErrNotFound
	}
	delete(repo.db.courses, id)
	// ON DELETE CASCADE
	for eid, e := range repo.db.enrollments {
		if e.CourseID == id {
			delete(repo.db.enrollments, eid)
		}
	}
	return nil
}

func (repo *courseRepository) CreateEnrollment(_ context.Context, e course.Enrollment, _ ...core.DBExecutor) (course.Enrollment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, other := range repo.db.enrollments {
		if other.StudentID == e.StudentID && other.CourseID == e.CourseID {
			return course.Enrollment{}, course.ErrAlreadyEnrolled
		}
	}
	e.ID = uuid.New().String()
	e.Course = nil
	repo.db.enrollments[e.ID] = &e
	return e, nil
}

func (repo *courseRepository) GetEnrollment(_ context.Context, id string, _ ...core.DBExecutor) (course.Enrollment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if e, ok := repo.db.enrollments[id]; ok {
		return *e, nil
	}
	return course.Enrollment{}, course.ErrEnrollmentNotFound
}

// LockEnrollment has nothing to lock: every access already holds the table mutex.
func (repo *courseRepository) LockEnrollment(ctx context.Context, id string, exec ...core.DBExecutor) (course.Enrollment, error) {
	return repo.GetEnrollment(ctx, id, exec...)
}

func (repo *courseRepository) UpdateEnrollment(_ context.Context, e course.Enrollment, _ ...core.DBExecutor) (course.Enrollment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.enrollments[e.ID]; !ok {
		return course.Enrollment{}, course.ErrEnrollmentNotFound
	}
	crs := e.Course
	e.Course = nil
	repo.db.enrollments[e.ID] = &e
	e.Course = crs
	return e, nil
}

func (repo *courseRepository) QueryEnrollments(_ context.Context, filter course.EnrollmentFilter, _ ...core.DBExecutor) ([]course.Enrollment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	enrollments := make([]course.Enrollment, 0)
	for _, e := range repo.db.enrollments {
		if filter.StudentIDs != nil && !contains(filter.StudentIDs, e.StudentID) {
			continue
		}
		if filter.CourseID != "" && e.CourseID != filter.CourseID {
			continue
		}
		enrollments = append(enrollments, *e)
	}
	sort.Slice(enrollments, func(i, j int) bool {
		if !enrollments[i].EnrolledAt.Equal(enrollments[j].EnrolledAt) {
			return enrollments[i].EnrolledAt.After(enrollments[j].EnrolledAt)
		}
		return enrollments[i].ID < enrollments[j].ID
	})
	return enrollments, nil
}

func (repo *courseRepository) CreateLessonCompletion(_ context.Context, lc course.LessonCompletion, _ ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	lc.ID = uuid.New().String()
	repo.db.completions = append(repo.db.completions, lc)
	return nil
}

func (repo *courseRepository) QueryLessonCompletions(_ context.Context, enrollmentIDs []string, since time.Time, _ ...core.DBExecutor) ([]course.LessonCompletion, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	completions := make([]course.LessonCompletion, 0)
	for _, lc := range repo.db.completions {
		if contains(enrollmentIDs, lc.EnrollmentID) && !lc.CompletedAt.Before(since) {
			completions = append(completions, lc)
		}
	}
	return completions, nil
}
