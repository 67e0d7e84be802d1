package achievement

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/upskillhub/upskill/core"
	"github.com/upskillhub/upskill/core/course"
)

const (
	fastLearnerLessons    = 5
	internshipReadyTracks = 3
)

var (
	// errors
	ErrAlreadyAwarded = errors.New("badge already awarded")
)

// StudentAchievement is a badge earned by a student; a badge is earned at most once.
type StudentAchievement struct {
	ID        string     `json:"id"`
	StudentID string     `json:"student_id"`
	Badge     BadgeKind  `json:"badge"`
	EarnedAt  time.Time  `json:"earned_at"`
	Display   Descriptor `json:"display"`
}

type (
	Repository interface {
		// CreateAchievement returns ErrAlreadyAwarded if the student already has the badge.
		CreateAchievement(ctx context.Context, a StudentAchievement, exec ...core.DBExecutor) (StudentAchievement, error)
		// QueryAchievements returns the achievements of the students, most recent first.
		QueryAchievements(ctx context.Context, studentIDs []string, exec ...core.DBExecutor) ([]StudentAchievement, error)
	}

	Service interface {
		// Award gives the badge to the student (no-op if already earned) and returns their badges.
		Award(ctx context.Context, studentID string, kind BadgeKind) ([]StudentAchievement, error)
		ForStudent(ctx context.Context, studentID string) ([]StudentAchievement, error)
		ForStudents(ctx context.Context, studentIDs []string) ([]StudentAchievement, error)
		// EvaluateProgress awards the progress badges the student qualifies for.
		EvaluateProgress(ctx context.Context, studentID string) error
	}

	service struct {
		repo       Repository
		courseRepo course.Repository
		logger     core.Logger
	}
)

var (
	_ Service                 = (*service)(nil) // interface compliance check
	_ course.ProgressObserver = (*service)(nil)
)

// NowFunc is mockable in tests.
var NowFunc = func() time.Time { return time.Now().UTC() }

func NewService(repo Repository, courseRepo course.Repository, logger core.Logger) Service {
	return &service{repo: repo, courseRepo: courseRepo, logger: logger}
}

func (svc *service) Award(ctx context.Context, studentID string, kind BadgeKind) ([]StudentAchievement, error) {
	if !kind.Valid() {
		return nil, ErrUnknownBadge
	}
	if _, err := svc.award(ctx, studentID, kind); err != nil {
		return nil, err
	}
	return svc.ForStudent(ctx, studentID)
}

func (svc *service) award(ctx context.Context, studentID string, kind BadgeKind) (bool, error) {
	_, err := svc.repo.CreateAchievement(ctx, StudentAchievement{
		StudentID: studentID,
		Badge:     kind,
		EarnedAt:  NowFunc(),
	})
	if err != nil {
		if errors.Cause(err) == ErrAlreadyAwarded {
			return false, nil
		}
		return false, errors.Wrapf(err, "awarding %s", kind)
	}
	return true, nil
}

func (svc *service) ForStudent(ctx context.Context, studentID string) ([]StudentAchievement, error) {
	return svc.ForStudents(ctx, []string{studentID})
}

func (svc *service) ForStudents(ctx context.Context, studentIDs []string) ([]StudentAchievement, error) {
	if len(studentIDs) == 0 {
		return []StudentAchievement{}, nil
	}
	achievements, err := svc.repo.QueryAchievements(ctx, studentIDs)
	if err != nil {
		return nil, errors.Wrap(err, "querying achievements")
	}
	for i := range achievements {
		achievements[i].Display = achievements[i].Badge.Descriptor()
	}
	return achievements, nil
}

func (svc *service) EvaluateProgress(ctx context.Context, studentID string) error {
	enrollments, err := svc.courseRepo.QueryEnrollments(ctx, course.EnrollmentFilter{StudentIDs: []string{studentID}})
	if err != nil {
		return errors.Wrap(err, "querying enrollments")
	}
	if len(enrollments) == 0 {
		return nil
	}

	var (
		courseIDs     = make([]string, 0, len(enrollments))
		enrollmentIDs = make([]string, 0, len(enrollments))
	)
	for _, e := range enrollments {
		courseIDs = append(courseIDs, e.CourseID)
		enrollmentIDs = append(enrollmentIDs, e.ID)
	}
	courses, err := svc.courseRepo.QueryCourses(ctx, &course.QueryFilter{IDs: courseIDs})
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	now := NowFunc()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	completions, err := svc.courseRepo.QueryLessonCompletions(ctx, enrollmentIDs, startOfDay)
	if err != nil {
		return errors.Wrap(err, "querying lesson completions")
	}
	var lessonsToday int
	for _, lc := range completions {
		lessonsToday += lc.Lessons
	}

	for _, kind := range Qualifies(enrollments, courses, lessonsToday) {
		awarded, err := svc.award(ctx, studentID, kind)
		if err != nil {
			return err
		}
		if awarded {
			svc.logger.Info("badge awarded", map[string]interface{}{"student_id": studentID, "badge": kind.String()})
		}
	}
	return nil
}

// Qualifies returns the progress badges earned by a student with these enrollments:
//   - first_steps: at least one lesson completed
//   - course_finisher: at least one course completed
//   - internship_ready: completed courses on 3 distinct skill tracks
//   - fast_learner: 5 lessons completed today
func Qualifies(enrollments []course.Enrollment, courses []course.Course, lessonsToday int) []BadgeKind {
	trackOf := make(map[string]string, len(courses))
	for _, c := range courses {
		trackOf[c.ID] = c.SkillTrack
	}

	var (
		lessons, finished int
		completedTracks   = make(map[string]struct{})
		kinds             []BadgeKind
	)
	for _, e := range enrollments {
		lessons += e.LessonsCompleted
		if !e.Completed() {
			continue
		}
		finished++
		if track, ok := trackOf[e.CourseID]; ok {
			completedTracks[track] = struct{}{}
		}
	}

	if lessons > 0 {
		kinds = append(kinds, FirstSteps)
	}
	if lessonsToday >= fastLearnerLessons {
		kinds = append(kinds, FastLearner)
	}
	if finished > 0 {
		kinds = append(kinds, CourseFinisher)
	}
	if len(completedTracks) >= internshipReadyTracks {
		kinds = append(kinds, InternshipReady)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
