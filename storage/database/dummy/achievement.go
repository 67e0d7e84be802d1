package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/upskillhub/upskill/core"
	"github.com/upskillhub/upskill/core/achievement"
)

type achievementRepository struct {
	db *achievementTable
}

var _ achievement.Repository = (*achievementRepository)(nil) // interface compliance check

func NewAchievementRepository(db *DB) achievement.Repository {
	return &achievementRepository{db: db.achievement}
}

func (repo *achievementRepository) CreateAchievement(_ context.Context, a achievement.StudentAchievement, _ ...core.DBExecutor) (achievement.StudentAchievement, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, other := range repo.db.table {
		if other.StudentID == a.StudentID && other.Badge == a.Badge {
			return achievement.StudentAchievement{}, achievement.ErrAlreadyAwarded
		}
	}
	a.ID = uuid.New().String()
	repo.db.table[a.ID] = &a
	return a, nil
}

func (repo *achievementRepository) QueryAchievements(_ context.Context, studentIDs []string, _ ...core.DBExecutor) ([]achievement.StudentAchievement, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	achievements := make([]achievement.StudentAchievement, 0)
	for _, a := range repo.db.table {
		if contains(studentIDs, a.StudentID) {
			achievements = append(achievements, *a)
		}
	}
	sort.Slice(achievements, func(i, j int) bool {
		if !achievements[i].EarnedAt.Equal(achievements[j].EarnedAt) {
			return achievements[i].EarnedAt.After(achievements[j].EarnedAt)
		}
		return achievements[i].Badge > achievements[j].Badge
	})
	return achievements, nil
}
