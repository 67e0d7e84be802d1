package dashboard

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/upskillhub/upskill/core"
	"github.com/upskillhub/upskill/core/achievement"
	"github.com/upskillhub/upskill/core/course"
	"github.com/upskillhub/upskill/core/mentor"
	"github.com/upskillhub/upskill/core/school"
	"github.com/upskillhub/upskill/core/student"
	"github.com/upskillhub/upskill/core/user"
)

// NowFunc can be replaced in tests.
var NowFunc = func() time.Time { return time.Now().UTC() }

type (
	Service interface {
		Student(ctx context.Context, usr user.User) (StudentView, error)
		Mentor(ctx context.Context, usr user.User) (MentorView, error)
		School(ctx context.Context, usr user.User) (SchoolView, error)
	}

	service struct {
		courseSvc      course.Service
		achievementSvc achievement.Service
		studentSvc     student.Service
		mentorSvc      mentor.Service
		schoolSvc      school.Service
		logger         core.Logger
	}
)

var _ Service = (*service)(nil) // interface compliance check

func NewService(
	courseSvc course.Service,
	achievementSvc achievement.Service,
	studentSvc student.Service,
	mentorSvc mentor.Service,
	schoolSvc school.Service,
	logger core.Logger,
) Service {
	return &service{
		courseSvc:      courseSvc,
		achievementSvc: achievementSvc,
		studentSvc:     studentSvc,
		mentorSvc:      mentorSvc,
		schoolSvc:      schoolSvc,
		logger:         logger,
	}
}

func (svc *service) Student(ctx context.Context, usr user.User) (StudentView, error) {
	prof, err := svc.studentSvc.Ensure(ctx, usr.ID)
	if err != nil {
		return StudentView{}, errors.Wrap(err, "loading student profile")
	}
	enrollments, err := svc.courseSvc.StudentEnrollments(ctx, prof.ID)
	if err != nil {
		return StudentView{}, errors.Wrap(err, "loading enrollments")
	}
	badges, err := svc.achievementSvc.ForStudent(ctx, prof.ID)
	if err != nil {
		return StudentView{}, errors.Wrap(err, "loading achievements")
	}

	var catalog []course.Course
	if len(prof.SkillTracks) > 0 {
		catalog, err = svc.courseSvc.ListCourses(ctx, &course.QueryFilter{SkillTrack: prof.SkillTracks})
		if err != nil {
			// recommendations are optional
			svc.logger.Error("loading recommended courses", err, map[string]interface{}{"student_id": prof.ID})
		}
	}
	return BuildStudent(usr, prof, enrollments, badges, catalog), nil
}

func (svc *service) Mentor(ctx context.Context, usr user.User) (MentorView, error) {
	prof, err := svc.mentorSvc.GetByUserID(ctx, usr.ID)
	if err != nil {
		return MentorView{}, errors.Wrap(err, "loading mentor profile")
	}
	sessions, err := svc.mentorSvc.ListSessions(ctx, prof.ID)
	if err != nil {
		return MentorView{}, errors.Wrap(err, "loading sessions")
	}
	return BuildMentor(usr, prof, sessions), nil
}

func (svc *service) School(ctx context.Context, usr user.User) (SchoolView, error) {
	prof, err := svc.schoolSvc.Ensure(ctx, usr.ID, school.Name(school.Profile{}, usr))
	if err != nil {
		return SchoolView{}, errors.Wrap(err, "loading school profile")
	}
	roster, err := svc.schoolSvc.Roster(ctx, prof.ID)
	if err != nil {
		return SchoolView{}, errors.Wrap(err, "loading roster")
	}

	studentIDs := make([]string, 0, len(roster))
	for _, m := range roster {
		studentIDs = append(studentIDs, m.StudentID)
	}
	var (
		enrollments []course.Enrollment
		badges      []achievement.StudentAchievement
	)
	if len(studentIDs) > 0 {
		if enrollments, err = svc.courseSvc.EnrollmentsForStudents(ctx, studentIDs); err != nil {
			return SchoolView{}, errors.Wrap(err, "loading roster enrollments")
		}
		if badges, err = svc.achievementSvc.ForStudents(ctx, studentIDs); err != nil {
			return SchoolView{}, errors.Wrap(err, "loading roster achievements")
		}
	}
	return BuildSchool(usr, prof, roster, enrollments, badges, NowFunc()), nil
}
