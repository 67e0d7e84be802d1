package dashboard

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/upskillhub/upskill/core/achievement"
	"github.com/upskillhub/upskill/core/course"
	"github.com/upskillhub/upskill/core/mentor"
	"github.com/upskillhub/upskill/core/school"
	"github.com/upskillhub/upskill/core/student"
	"github.com/upskillhub/upskill/core/user"
)

const (
	maxRecommended    = 6
	maxTopPerformers  = 5
	maxRecentActivity = 10
	trendMonths       = 6
)

// Activity kinds
const (
	ActivityCourseStarted  = "course_started"
	ActivityCourseFinished = "course_finished"
	ActivityBadgeEarned    = "badge_earned"
)

type (
	StudentView struct {
		DisplayName      string                           `json:"display_name"`
		Profile          student.Profile                  `json:"profile"`
		Tracks           []course.Track                   `json:"tracks"`
		Interests        []string                         `json:"interests"`
		Enrollments      []course.Enrollment              `json:"enrollments"`
		AverageProgress  int                              `json:"average_progress"`
		LessonsCompleted int                              `json:"lessons_completed"`
		CoursesCompleted int                              `json:"courses_completed"`
		Badges           []achievement.StudentAchievement `json:"badges"`
		Recommended      []course.Course                  `json:"recommended"`
	}

	MentorStats struct {
		Total     int `json:"total"`
		Upcoming  int `json:"upcoming"`
		Booked    int `json:"booked"`
		Completed int `json:"completed"`
	}

	MentorView struct {
		DisplayName string           `json:"display_name"`
		Profile     mentor.Profile   `json:"profile"`
		Upcoming    []mentor.Session `json:"upcoming"`
		Past        []mentor.Session `json:"past"`
		Stats       MentorStats      `json:"stats"`
	}

	TrackStat struct {
		Track       course.Track `json:"track"`
		Students    int          `json:"students"`
		Enrollments int          `json:"enrollments"`
		Completion  int          `json:"completion"` // %
	}

	TrendPoint struct {
		Month    string `json:"month"` // YYYY-MM
		Students int    `json:"students"`
	}

	Performer struct {
		Rank      int    `json:"rank"`
		StudentID string `json:"student_id"`
		Name      string `json:"name"`
		Score     int    `json:"score"`
		Courses   int    `json:"courses"`
	}

	Activity struct {
		Kind        string    `json:"kind"`
		StudentID   string    `json:"student_id"`
		Student     string    `json:"student"`
		Description string    `json:"description"`
		At          time.Time `json:"at"`
	}

	SchoolView struct {
		SchoolName      string          `json:"school_name"`
		Profile         school.Profile  `json:"profile"`
		Roster          []school.Member `json:"roster"`
		RosterSize      int             `json:"roster_size"`
		AverageProgress int             `json:"average_progress"`
		TrackStats      []TrackStat     `json:"track_stats"`
		Trend           []TrendPoint    `json:"trend"`
		TopPerformers   []Performer     `json:"top_performers"`
		RecentActivity  []Activity      `json:"recent_activity"`
	}
)

// AverageProgress returns the rounded mean progress of the enrollments, 0 if there are none.
func AverageProgress(enrollments []course.Enrollment) int {
	if len(enrollments) == 0 {
		return 0
	}
	var sum int
	for _, e := range enrollments {
		sum += e.Progress
	}
	return int(math.Round(float64(sum) / float64(len(enrollments))))
}

func BuildStudent(usr user.User, prof student.Profile, enrollments []course.Enrollment, badges []achievement.StudentAchievement, catalog []course.Course) StudentView {
	v := StudentView{
		DisplayName:     usr.DisplayName("Student"),
		Profile:         prof,
		Tracks:          make([]course.Track, 0, len(prof.SkillTracks)),
		Interests:       prof.Interests,
		Enrollments:     enrollments,
		AverageProgress: AverageProgress(enrollments),
		Badges:          badges,
		Recommended:     make([]course.Course, 0, maxRecommended),
	}
	if v.Interests == nil {
		v.Interests = []string{}
	}
	if v.Enrollments == nil {
		v.Enrollments = []course.Enrollment{}
	}
	if v.Badges == nil {
		v.Badges = []achievement.StudentAchievement{}
	}
	for _, t := range prof.SkillTracks {
		track, _ := course.LookupTrack(t)
		v.Tracks = append(v.Tracks, track)
	}

	enrolled := make(map[string]struct{}, len(enrollments))
	for _, e := range enrollments {
		enrolled[e.CourseID] = struct{}{}
		v.LessonsCompleted += e.LessonsCompleted
		if e.Completed() {
			v.CoursesCompleted++
		}
	}

	tracks := make(map[string]struct{}, len(prof.SkillTracks))
	for _, t := range prof.SkillTracks {
		tracks[t] = struct{}{}
	}
	for _, c := range catalog {
		if len(v.Recommended) == maxRecommended {
			break
		}
		if _, ok := tracks[c.SkillTrack]; !ok {
			continue
		}
		if _, ok := enrolled[c.ID]; ok {
			continue
		}
		v.Recommended = append(v.Recommended, c)
	}
	return v
}

func BuildMentor(usr user.User, prof mentor.Profile, sessions []mentor.Session) MentorView {
	upcoming, past := mentor.SplitSessions(sessions)
	v := MentorView{
		DisplayName: usr.DisplayName("Mentor"),
		Profile:     prof,
		Upcoming:    upcoming,
		Past:        past,
		Stats: MentorStats{
			Total:    len(sessions),
			Upcoming: len(upcoming),
		},
	}
	for _, s := range sessions {
		switch s.Status {
		case mentor.SessionBooked:
			v.Stats.Booked++
		case mentor.SessionCompleted:
			v.Stats.Completed++
		}
	}
	return v
}

// BuildSchool aggregates the roster of a school. `now` anchors the enrollment trend.
func BuildSchool(
	usr user.User,
	prof school.Profile,
	roster []school.Member,
	enrollments []course.Enrollment,
	badges []achievement.StudentAchievement,
	now time.Time,
) SchoolView {
	if roster == nil {
		roster = []school.Member{}
	}
	names := make(map[string]string, len(roster))
	for _, m := range roster {
		names[m.StudentID] = m.FullName
	}

	return SchoolView{
		SchoolName:      school.Name(prof, usr),
		Profile:         prof,
		Roster:          roster,
		RosterSize:      len(roster),
		AverageProgress: AverageProgress(enrollments),
		TrackStats:      TrackStats(enrollments),
		Trend:           EnrollmentTrend(roster, now),
		TopPerformers:   TopPerformers(enrollments, names),
		RecentActivity:  RecentActivity(enrollments, badges, names),
	}
}

// TrackStats groups the enrollments by skill track, in the order of course.Tracks.
// Completion is the share of completed enrollments. Tracks without enrollments are left out.
func TrackStats(enrollments []course.Enrollment) []TrackStat {
	type agg struct {
		students             map[string]struct{}
		enrollments, complete int
	}
	byTrack := make(map[string]*agg)
	for _, e := range enrollments {
		if e.Course == nil {
			continue
		}
		a, ok := byTrack[e.Course.SkillTrack]
		if !ok {
			a = &agg{students: make(map[string]struct{})}
			byTrack[e.Course.SkillTrack] = a
		}
		a.students[e.StudentID] = struct{}{}
		a.enrollments++
		if e.Completed() {
			a.complete++
		}
	}

	stats := make([]TrackStat, 0, len(byTrack))
	for _, t := range course.Tracks {
		a, ok := byTrack[t.Value]
		if !ok {
			continue
		}
		stats = append(stats, TrackStat{
			Track:       t,
			Students:    len(a.students),
			Enrollments: a.enrollments,
			Completion:  course.Progress(a.complete, a.enrollments),
		})
	}
	return stats
}

// EnrollmentTrend returns the roster size at the end of each of the last six months, oldest first.
func EnrollmentTrend(roster []school.Member, now time.Time) []TrendPoint {
	now = now.UTC()
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	points := make([]TrendPoint, 0, trendMonths)
	for i := trendMonths - 1; i >= 0; i-- {
		start := firstOfMonth.AddDate(0, -i, 0)
		end := start.AddDate(0, 1, 0)
		var n int
		for _, m := range roster {
			if m.EnrolledAt.Before(end) {
				n++
			}
		}
		points = append(points, TrendPoint{
			Month:    fmt.Sprintf("%04d-%02d", start.Year(), int(start.Month())),
			Students: n,
		})
	}
	return points
}

// TopPerformers ranks students by mean progress, then by course count.
func TopPerformers(enrollments []course.Enrollment, names map[string]string) []Performer {
	type agg struct{ sum, courses int }
	byStudent := make(map[string]*agg)
	for _, e := range enrollments {
		a, ok := byStudent[e.StudentID]
		if !ok {
			a = &agg{}
			byStudent[e.StudentID] = a
		}
		a.sum += e.Progress
		a.courses++
	}

	performers := make([]Performer, 0, len(byStudent))
	for id, a := range byStudent {
		performers = append(performers, Performer{
			StudentID: id,
			Name:      nameOf(names, id),
			Score:     int(math.Round(float64(a.sum) / float64(a.courses))),
			Courses:   a.courses,
		})
	}
	sort.Slice(performers, func(i, j int) bool {
		pi, pj := performers[i], performers[j]
		if pi.Score != pj.Score {
			return pi.Score > pj.Score
		}
		if pi.Courses != pj.Courses {
			return pi.Courses > pj.Courses
		}
		if pi.Name != pj.Name {
			return pi.Name < pj.Name
		}
		return pi.StudentID < pj.StudentID
	})
	if len(performers) > maxTopPerformers {
		performers = performers[:maxTopPerformers]
	}
	for i := range performers {
		performers[i].Rank = i + 1
	}
	return performers
}

// RecentActivity lists started & finished courses and earned badges, newest first.
func RecentActivity(enrollments []course.Enrollment, badges []achievement.StudentAchievement, names map[string]string) []Activity {
	acts := make([]Activity, 0, len(enrollments)+len(badges))
	for _, e := range enrollments {
		title := "a course"
		if e.Course != nil {
			title = e.Course.Title
		}
		acts = append(acts, Activity{
			Kind:        ActivityCourseStarted,
			StudentID:   e.StudentID,
			Student:     nameOf(names, e.StudentID),
			Description: "Started " + title,
			At:          e.EnrolledAt,
		})
		if e.Completed() {
			acts = append(acts, Activity{
				Kind:        ActivityCourseFinished,
				StudentID:   e.StudentID,
				Student:     nameOf(names, e.StudentID),
				Description: "Completed " + title,
				At:          e.UpdatedAt,
			})
		}
	}
	for _, b := range badges {
		acts = append(acts, Activity{
			Kind:        ActivityBadgeEarned,
			StudentID:   b.StudentID,
			Student:     nameOf(names, b.StudentID),
			Description: fmt.Sprintf("Earned '%s' badge", b.Badge.Descriptor().Title),
			At:          b.EarnedAt,
		})
	}

	sort.SliceStable(acts, func(i, j int) bool { return acts[i].At.After(acts[j].At) })
	if len(acts) > maxRecentActivity {
		acts = acts[:maxRecentActivity]
	}
	return acts
}

func nameOf(names map[string]string, studentID string) string {
	if name := names[studentID]; name != "" {
		return name
	}
	return "Student"
}
