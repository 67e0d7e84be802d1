package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/upskillhub/upskill/core"
	"github.com/upskillhub/upskill/core/achievement"
)

type achievementRow struct {
	ID        string    `db:"id"`
	StudentID string    `db:"student_id"`
	Badge     string    `db:"badge"`
	EarnedAt  time.Time `db:"earned_at"`
}

type achievementRepository struct {
	exec core.DBExecutor
}

var _ achievement.Repository = (*achievementRepository)(nil) // interface compliance check

func NewAchievementRepository(exec core.DBExecutor) achievement.Repository {
	return &achievementRepository{exec: exec}
}

func (repo *achievementRepository) CreateAchievement(ctx context.Context, a achievement.StudentAchievement, exec ...core.DBExecutor) (achievement.StudentAchievement, error) {
	a.ID = uuid.New().String()
	const q = `INSERT INTO student_achievements (id, student_id, badge, earned_at) VALUES ($1, $2, $3, $4)`
	_, err := core.Executor(repo.exec, exec).ExecContext(ctx, q, a.ID, a.StudentID, a.Badge.String(), a.EarnedAt.UTC())
	if err != nil {
		return achievement.StudentAchievement{}, trapUniqueErr(err, achievement.ErrAlreadyAwarded, "inserting achievement")
	}
	return a, nil
}

func (repo *achievementRepository) QueryAchievements(ctx context.Context, studentIDs []string, exec ...core.DBExecutor) ([]achievement.StudentAchievement, error) {
	var rows []achievementRow
	const q = `SELECT id, student_id, badge, earned_at FROM student_achievements
		WHERE student_id = ANY($1::uuid[])
		ORDER BY earned_at DESC, id ASC`
	if err := core.Executor(repo.exec, exec).SelectContext(ctx, &rows, q, pq.Array(studentIDs)); err != nil {
		return nil, errors.Wrap(err, "querying achievements")
	}

	achievements := make([]achievement.StudentAchievement, 0, len(rows))
	for _, r := range rows {
		kind, err := achievement.ParseBadgeKind(r.Badge)
		if err != nil {
			continue // retired badge
		}
		achievements = append(achievements, achievement.StudentAchievement{
			ID:        r.ID,
			StudentID: r.StudentID,
			Badge:     kind,
			EarnedAt:  r.EarnedAt.UTC(),
		})
	}
	return achievements, nil
}
