package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/upskillhub/upskill/core"
	"github.com/upskillhub/upskill/core/student"
)

type studentRepository struct {
	db *studentTable
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db.student}
}

func (repo *studentRepository) GetProfile(_ context.Context, filter student.GetFilter, _ ...core.DBExecutor) (student.Profile, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, p := range repo.db.table {
		if (filter.ID != "" && p.ID == filter.ID) || (filter.ID == "" && filter.UserID != "" && p.UserID == filter.UserID) {
			return *p, nil
		}
	}
	return student.Profile{}, student.ErrNotFound
}

func (repo *studentRepository) QueryProfiles(_ context.Context, ids []string, _ ...core.DBExecutor) ([]student.Profile, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	profiles := make([]student.Profile, 0, len(ids))
	for _, id := range ids {
		if p, ok := repo.db.table[id]; ok {
			profiles = append(profiles, *p)
		}
	}
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].ID < profiles[j].ID })
	return profiles, nil
}

func (repo *studentRepository) UpsertProfile(_ context.Context, p student.Profile, _ ...core.DBExecutor) (student.Profile, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, existing := range repo.db.table {
		if existing.UserID == p.UserID {
			p.ID = existing.ID
			p.CreatedAt = existing.CreatedAt
			break
		}
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	p.SkillTracks = append([]string{}, p.SkillTracks...)
	p.Interests = append([]string{}, p.Interests...)
	repo.db.table[p.ID] = &p
	return p, nil
}
