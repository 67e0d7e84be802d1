package dummydb

import (
	"context"
	"sync"

	"github.com/upskillhub/upskill/core"
	"github.com/upskillhub/upskill/core/achievement"
	"github.com/upskillhub/upskill/core/course"
	"github.com/upskillhub/upskill/core/mentor"
	"github.com/upskillhub/upskill/core/school"
	"github.com/upskillhub/upskill/core/student"
	"github.com/upskillhub/upskill/core/user"
)

type (
	// DB is an in-memory database, used by tests and `--dummy` runs.
	DB struct {
		user        *userTable
		course      *courseTable
		achievement *achievementTable
		student     *studentTable
		mentor      *mentorTable
		school      *schoolTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	courseTable struct {
		sync.RWMutex
		courses     map[string]*course.Course
		enrollments map[string]*course.Enrollment
		completions []course.LessonCompletion
	}

	achievementTable struct {
		sync.RWMutex
		table map[string]*achievement.StudentAchievement
	}

	studentTable struct {
		sync.RWMutex
		table map[string]*student.Profile
	}

	mentorTable struct {
		sync.RWMutex
		profiles       map[string]*mentor.Profile
		qualifications map[string][]mentor.Qualification // by mentor ID
		sessions       map[string]*mentor.Session
	}

	schoolTable struct {
		sync.RWMutex
		profiles map[string]*school.Profile
		members  map[string]*school.Member
	}
)

var _ core.Transactor = (*DB)(nil) // interface compliance check

func Open() (*DB, error) {
	db := &DB{
		user:        &userTable{table: make(map[string]*user.User)},
		course:      &courseTable{courses: make(map[string]*course.Course), enrollments: make(map[string]*course.Enrollment)},
		achievement: &achievementTable{table: make(map[string]*achievement.StudentAchievement)},
		student:     &studentTable{table: make(map[string]*student.Profile)},
		mentor: &mentorTable{
			profiles:       make(map[string]*mentor.Profile),
			qualifications: make(map[string][]mentor.Qualification),
			sessions:       make(map[string]*mentor.Session),
		},
		school: &schoolTable{profiles: make(map[string]*school.Profile), members: make(map[string]*school.Member)},
	}
	return db, nil
}

// InTx runs fn without a transaction: writes are not rolled back on error.
func (db *DB) InTx(_ context.Context, fn func(exec core.DBExecutor) error) error {
	return fn(nil)
}

func contains(ids []string, id string) bool {
	for _, i := range ids {
		if i == id {
			return true
		}
	}
	return false
}
