package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/upskillhub/upskill/core"
	"github.com/upskillhub/upskill/core/school"
)

type schoolRepository struct {
	db *schoolTable
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *DB) school.Repository {
	return &schoolRepository{db: db.school}
}

func (repo *schoolRepository) GetProfile(_ context.Context, filter school.GetFilter, _ ...core.DBExecutor) (school.Profile, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, p := range repo.db.profiles {
		if (filter.ID != "" && p.ID == filter.ID) || (filter.ID == "" && filter.UserID != "" && p.UserID == filter.UserID) {
			return *p, nil
		}
	}
	return school.Profile{}, school.ErrNotFound
}

func (repo *schoolRepository) UpsertProfile(_ context.Context, p school.Profile, _ ...core.DBExecutor) (school.Profile, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, existing := range repo.db.profiles {
		if existing.UserID == p.UserID {
			p.ID = existing.ID
			p.CreatedAt = existing.CreatedAt
			break
		}
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	repo.db.profiles[p.ID] = &p
	return p, nil
}

func (repo *schoolRepository) AddMember(_ context.Context, m school.Member, _ ...core.DBExecutor) (school.Member, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, other := range repo.db.members {
		if other.SchoolID == m.SchoolID && other.StudentID == m.StudentID {
			return school.Member{}, school.ErrAlreadyMember
		}
	}
	m = school.Member{ID: uuid.New().String(), SchoolID: m.SchoolID, StudentID: m.StudentID, EnrolledAt: m.EnrolledAt}
	repo.db.members[m.ID] = &m
	return m, nil
}

func (repo *schoolRepository) RemoveMember(_ context.Context, schoolID, studentID string, _ ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for id, m := range repo.db.members {
		if m.SchoolID == schoolID && m.StudentID == studentID {
			delete(repo.db.members, id)
			return nil
		}
	}
	return school.ErrMemberNotFound
}

func (repo *schoolRepository) QueryMembers(_ context.Context, schoolID string, _ ...core.DBExecutor) ([]school.Member, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	members := make([]school.Member, 0)
	for _, m := range repo.db.members {
		if m.SchoolID == schoolID {
			members = append(members, *m)
		}
	}
	sort.Slice(members, func(i, j int) bool {
		if !members[i].EnrolledAt.Equal(members[j].EnrolledAt) {
			return members[i].EnrolledAt.Before(members[j].EnrolledAt)
		}
		return members[i].ID < members[j].ID
	})
	return members, nil
}
