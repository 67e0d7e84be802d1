package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/upskillhub/upskill/core"
	"github.com/upskillhub/upskill/core/mentor"
)

type mentorRepository struct {
	db *mentorTable
}

var _ mentor.Repository = (*mentorRepository)(nil) // interface compliance check

func NewMentorRepository(db *DB) mentor.Repository {
	return &mentorRepository{db: db.mentor}
}

func (repo *mentorRepository) GetProfile(_ context.Context, filter mentor.GetFilter, _ ...core.DBExecutor) (mentor.Profile, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, p := range repo.db.profiles {
		if (filter.ID != "" && p.ID == filter.ID) || (filter.ID == "" && filter.UserID != "" && p.UserID == filter.UserID) {
			return *p, nil
		}
	}
	return mentor.Profile{}, mentor.ErrNotFound
}

func (repo *mentorRepository) QueryProfiles(_ context.Context, verificationStatus string, _ ...core.DBExecutor) ([]mentor.Profile, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	profiles := make([]mentor.Profile, 0, len(repo.db.profiles))
	for _, p := range repo.db.profiles {
		if verificationStatus == "" || p.VerificationStatus == verificationStatus {
			profiles = append(profiles, *p)
		}
	}
	sort.Slice(profiles, func(i, j int) bool {
		if !profiles[i].CreatedAt.Equal(profiles[j].CreatedAt) {
			return profiles[i].CreatedAt.Before(profiles[j].CreatedAt)
		}
		return profiles[i].ID < profiles[j].ID
	})
	return profiles, nil
}

func (repo *mentorRepository) UpsertProfile(_ context.Context, p mentor.Profile, _ ...core.DBExecutor) (mentor.Profile, error) {
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
	if p.VerificationStatus == "" {
		p.VerificationStatus = mentor.StatusPending
	}
	p.ExpertiseAreas = append([]string{}, p.ExpertiseAreas...)
	p.Qualifications = nil
	repo.db.profiles[p.ID] = &p
	return p, nil
}

func (repo *mentorRepository) ReplaceQualifications(_ context.Context, mentorID string, quals []mentor.Qualification, _ ...core.DBExecutor) ([]mentor.Qualification, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	saved := make([]mentor.Qualification, 0, len(quals))
	for _, q := range quals {
		q.ID = uuid.New().String()
		q.MentorID = mentorID
		saved = append(saved, q)
	}
	repo.db.qualifications[mentorID] = saved
	return append([]mentor.Qualification{}, saved...), nil
}

func (repo *mentorRepository) QueryQualifications(_ context.Context, mentorID string, _ ...core.DBExecutor) ([]mentor.Qualification, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return append([]mentor.Qualification{}, repo.db.qualifications[mentorID]...), nil
}

func (repo *mentorRepository) CreateSession(_ context.Context, s mentor.Session, _ ...core.DBExecutor) (mentor.Session, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.profiles[s.MentorID]; !ok {
		return mentor.Session{}, mentor.ErrNotFound
	}
	s.ID = uuid.New().String()
	repo.db.sessions[s.ID] = &s
	return s, nil
}

func (repo *mentorRepository) GetSession(_ context.Context, id string, _ ...core.DBExecutor) (mentor.Session, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if s, ok := repo.db.sessions[id]; ok {
		return *s, nil
	}
	return mentor.Session{}, mentor.ErrSessionNotFound
}

func (repo *mentorRepository) UpdateSession(_ context.Context, s mentor.Session, _ ...core.DBExecutor) (mentor.Session, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.sessions[s.ID]; !ok {
		return mentor.Session{}, mentor.ErrSessionNotFound
	}
	repo.db.sessions[s.ID] = &s
	return s, nil
}

func (repo *mentorRepository) BookSession(_ context.Context, id, studentID string, at time.Time, _ ...core.DBExecutor) (mentor.Session, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	s, ok := repo.db.sessions[id]
	if !ok {
		return mentor.Session{}, mentor.ErrSessionNotFound
	}
	if s.Status != mentor.SessionAvailable {
		return mentor.Session{}, mentor.ErrSessionNotAvailable
	}
	booked := *s
	booked.Status = mentor.SessionBooked
	booked.StudentID = studentID
	booked.UpdatedAt = at
	repo.db.sessions[id] = &booked
	return booked, nil
}

func (repo *mentorRepository) DeleteSession(_ context.Context, id string, _ ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.sessions[id]; !ok {
		return mentor.ErrSessionNotFound
	}
	delete(repo.db.sessions, id)
	return nil
}

func (repo *mentorRepository) QuerySessions(_ context.Context, filter mentor.SessionFilter, _ ...core.DBExecutor) ([]mentor.Session, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	sessions := make([]mentor.Session, 0)
	for _, s := range repo.db.sessions {
		if filter.MentorID != "" && s.MentorID != filter.MentorID {
			continue
		}
		if len(filter.Statuses) > 0 && !contains(filter.Statuses, s.Status) {
			continue
		}
		if filter.FromDate != "" && s.SessionDate < filter.FromDate {
			continue
		}
		sessions = append(sessions, *s)
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].ID < sessions[j].ID })
	mentor.SortSessions(sessions)
	return sessions, nil
}
