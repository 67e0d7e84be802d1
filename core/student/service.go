package student

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/upskillhub/upskill/core"
)

var (
	// errors
	ErrNotFound = errors.New("student profile not found")
)

type (
	Repository interface {
		GetProfile(ctx context.Context, filter GetFilter, exec ...core.DBExecutor) (Profile, error)
		QueryProfiles(ctx context.Context, ids []string, exec ...core.DBExecutor) ([]Profile, error)
		// UpsertProfile inserts the profile or, if the user already has one, overwrites it.
		UpsertProfile(ctx context.Context, p Profile, exec ...core.DBExecutor) (Profile, error)
	}

	Service interface {
		GetByID(ctx context.Context, id string) (Profile, error)
		GetByUserID(ctx context.Context, userID string) (Profile, error)
		// Ensure returns the student profile of the user, creating an empty one on first access.
		// Pass `exec` to create it inside a caller's transaction.
		Ensure(ctx context.Context, userID string, exec ...core.DBExecutor) (Profile, error)
		CompleteOnboarding(ctx context.Context, userID string, data Onboarding) (Profile, error)
		Query(ctx context.Context, ids []string) ([]Profile, error)
	}

	service struct {
		repo Repository
	}
)

// GetFilter selects a single Profile by ID or by UserID.
type GetFilter struct {
	ID     string
	UserID string
}

var _ Service = (*service)(nil) // interface compliance check

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) GetByID(ctx context.Context, id string) (Profile, error) {
	return svc.repo.GetProfile(ctx, GetFilter{ID: id})
}

func (svc *service) GetByUserID(ctx context.Context, userID string) (Profile, error) {
	return svc.repo.GetProfile(ctx, GetFilter{UserID: userID})
}

func (svc *service) Ensure(ctx context.Context, userID string, exec ...core.DBExecutor) (Profile, error) {
	prof, err := svc.repo.GetProfile(ctx, GetFilter{UserID: userID}, exec...)
	if err == nil {
		return prof, nil
	}
	if errors.Cause(err) != ErrNotFound {
		return Profile{}, err
	}
	now := time.Now().UTC()
	return svc.repo.UpsertProfile(ctx, Profile{
		UserID:      userID,
		SkillTracks: []string{},
		Interests:   []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}, exec...)
}

func (svc *service) CompleteOnboarding(ctx context.Context, userID string, data Onboarding) (Profile, error) {
	prof, err := svc.GetByUserID(ctx, userID)
	now := time.Now().UTC()
	switch {
	case err == nil:
		if prof.OnboardingCompleted {
			return Profile{}, core.ErrOnboardingCompleted
		}
	case errors.Cause(err) == ErrNotFound:
		prof = Profile{UserID: userID, CreatedAt: now}
	default:
		return Profile{}, err
	}
	prof = data.apply(prof)
	prof.UpdatedAt = now
	return svc.repo.UpsertProfile(ctx, prof)
}

func (svc *service) Query(ctx context.Context, ids []string) ([]Profile, error) {
	if len(ids) == 0 {
		return []Profile{}, nil
	}
	return svc.repo.QueryProfiles(ctx, ids)
}
