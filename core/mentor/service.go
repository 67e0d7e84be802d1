package mentor

import (
	"context"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/upskillhub/upskill/core"
	"github.com/upskillhub/upskill/core/user"
)

var (
	// errors
	ErrNotFound            = errors.New("mentor profile not found")
	ErrSessionNotFound     = errors.New("session not found")
	ErrNotVerified         = errors.New("mentor is not verified")
	ErrSessionNotAvailable = errors.New("session is not available")
	ErrNoQualifications    = errors.New("Please add at least one qualification.")

	errInvalidVerification  = errors.New("status must be one of pending, verified or rejected")
	errInvalidSessionStatus = errors.New("status must be one of available, booked, completed or cancelled")
)

type (
	Repository interface {
		GetProfile(ctx context.Context, filter GetFilter, exec ...core.DBExecutor) (Profile, error)
		// QueryProfiles returns the profiles with the verification status, every profile if empty.
		QueryProfiles(ctx context.Context, verificationStatus string, exec ...core.DBExecutor) ([]Profile, error)
		UpsertProfile(ctx context.Context, p Profile, exec ...core.DBExecutor) (Profile, error)

		// ReplaceQualifications deletes the mentor's qualifications and inserts `quals`.
		ReplaceQualifications(ctx context.Context, mentorID string, quals []Qualification, exec ...core.DBExecutor) ([]Qualification, error)
		QueryQualifications(ctx context.Context, mentorID string, exec ...core.DBExecutor) ([]Qualification, error)

		CreateSession(ctx context.Context, s Session, exec ...core.DBExecutor) (Session, error)
		GetSession(ctx context.Context, id string, exec ...core.DBExecutor) (Session, error)
		UpdateSession(ctx context.Context, s Session, exec ...core.DBExecutor) (Session, error)
		// BookSession books the session for the student only while it is still available.
		// Returns ErrSessionNotAvailable otherwise.
		BookSession(ctx context.Context, id, studentID string, at time.Time, exec ...core.DBExecutor) (Session, error)
		DeleteSession(ctx context.Context, id string, exec ...core.DBExecutor) error
		// QuerySessions returns the matching sessions ordered by date, then start time.
		QuerySessions(ctx context.Context, filter SessionFilter, exec ...core.DBExecutor) ([]Session, error)
	}

	Service interface {
		GetByID(ctx context.Context, id string) (Profile, error)
		GetByUserID(ctx context.Context, userID string) (Profile, error)
		Query(ctx context.Context, verificationStatus string) ([]Profile, error)
		// CompleteOnboarding stores the profile and its qualifications in a single transaction.
		CompleteOnboarding(ctx context.Context, userID string, data ProfileInput, quals []QualificationInput) (Profile, error)
		SetAvailability(ctx context.Context, userID string, available bool) (Profile, error)
		SetVerification(ctx context.Context, mentorID, status string) (Profile, error)

		CreateSession(ctx context.Context, mentorID string, ns NewSession) (Session, error)
		ListSessions(ctx context.Context, mentorID string) ([]Session, error)
		UpdateSessionStatus(ctx context.Context, mentorID, sessionID, status string) (Session, error)
		// DeleteSession deletes one of the mentor's sessions and returns the remaining ones.
		DeleteSession(ctx context.Context, mentorID, sessionID string) ([]Session, error)
		ListOpenSessions(ctx context.Context) ([]Session, error)
		BookSession(ctx context.Context, sessionID, studentID string) (Session, error)
	}

	service struct {
		repo    Repository
		tx      core.Transactor
		usrSvc  user.Service
		mailSvc core.EmailService
	}
)

var _ Service = (*service)(nil) // interface compliance check

// NowFunc is mockable in tests.
var NowFunc = func() time.Time { return time.Now().UTC() }

func NewService(repo Repository, tx core.Transactor, usrSvc user.Service, mailSvc core.EmailService) Service {
	return &service{repo: repo, tx: tx, usrSvc: usrSvc, mailSvc: mailSvc}
}

func (svc *service) GetByID(ctx context.Context, id string) (Profile, error) {
	return svc.withQualifications(ctx, GetFilter{ID: id})
}

func (svc *service) GetByUserID(ctx context.Context, userID string) (Profile, error) {
	return svc.withQualifications(ctx, GetFilter{UserID: userID})
}

func (svc *service) withQualifications(ctx context.Context, filter GetFilter) (Profile, error) {
	prof, err := svc.repo.GetProfile(ctx, filter)
	if err != nil {
		return Profile{}, err
	}
	if prof.Qualifications, err = svc.repo.QueryQualifications(ctx, prof.ID); err != nil {
		return Profile{}, errors.Wrap(err, "querying qualifications")
	}
	return prof, nil
}

func (svc *service) Query(ctx context.Context, verificationStatus string) ([]Profile, error) {
	return svc.repo.QueryProfiles(ctx, verificationStatus)
}

func (svc *service) CompleteOnboarding(ctx context.Context, userID string, data ProfileInput, quals []QualificationInput) (Profile, error) {
	if len(quals) == 0 {
		return Profile{}, core.NewValidationError(ErrNoQualifications, core.FieldError{Field: "qualifications", Error: ErrNoQualifications.Error()})
	}

	var prof Profile
	err := svc.tx.InTx(ctx, func(exec core.DBExecutor) error {
		now := NowFunc()
		existing, err := svc.repo.GetProfile(ctx, GetFilter{UserID: userID}, exec)
		switch {
		case err == nil:
			if existing.OnboardingCompleted {
				return core.ErrOnboardingCompleted
			}
			prof = existing
		case errors.Cause(err) == ErrNotFound:
			prof = Profile{UserID: userID, IsAvailable: true, CreatedAt: now}
		default:
			return err
		}

		prof.Phone = data.Phone
		prof.Bio = data.Bio
		prof.ExpertiseAreas = data.ExpertiseAreas
		prof.YearsOfExperience = data.YearsOfExperience
		prof.HourlyRate = data.HourlyRate
		prof.LinkedinURL = data.LinkedinURL
		prof.PortfolioURL = data.PortfolioURL
		prof.VerificationStatus = StatusPending
		prof.OnboardingCompleted = true
		prof.UpdatedAt = now
		if prof, err = svc.repo.UpsertProfile(ctx, prof, exec); err != nil {
			return errors.Wrap(err, "saving mentor profile")
		}

		qq := make([]Qualification, 0, len(quals))
		for _, q := range quals {
			qq = append(qq, Qualification{
				MentorID:       prof.ID,
				Title:          q.Title,
				Institution:    q.Institution,
				YearObtained:   q.YearObtained,
				CertificateURL: q.CertificateURL,
				CreatedAt:      now,
			})
		}
		prof.Qualifications, err = svc.repo.ReplaceQualifications(ctx, prof.ID, qq, exec)
		return errors.Wrap(err, "saving qualifications")
	})
	if err != nil {
		return Profile{}, err
	}
	return prof, nil
}

func (svc *service) SetAvailability(ctx context.Context, userID string, available bool) (Profile, error) {
	prof, err := svc.GetByUserID(ctx, userID)
	if err != nil {
		return Profile{}, err
	}
	prof.IsAvailable = available
	prof.UpdatedAt = NowFunc()
	quals := prof.Qualifications
	if prof, err = svc.repo.UpsertProfile(ctx, prof); err != nil {
		return Profile{}, err
	}
	prof.Qualifications = quals
	return prof, nil
}

// SetVerification changes the verification status of the mentor and notifies them by e-mail.
func (svc *service) SetVerification(ctx context.Context, mentorID, status string) (Profile, error) {
	if status != StatusPending && status != StatusVerified && status != StatusRejected {
		return Profile{}, core.NewValidationError(errInvalidVerification, core.FieldError{Field: "status", Error: errInvalidVerification.Error()})
	}
	prof, err := svc.GetByID(ctx, mentorID)
	if err != nil {
		return Profile{}, err
	}
	if prof.VerificationStatus == status {
		return prof, nil
	}

	prof.VerificationStatus = status
	prof.UpdatedAt = NowFunc()
	quals := prof.Qualifications
	if prof, err = svc.repo.UpsertProfile(ctx, prof); err != nil {
		return Profile{}, err
	}
	prof.Qualifications = quals

	if status != StatusPending {
		usr, err := svc.usrSvc.GetByID(ctx, prof.UserID)
		if err != nil {
			return Profile{}, errors.Wrap(err, "finding mentor account")
		}
		svc.sendVerificationMail(usr, status)
	}
	return prof, nil
}

func (svc *service) CreateSession(ctx context.Context, mentorID string, ns NewSession) (Session, error) {
	prof, err := svc.repo.GetProfile(ctx, GetFilter{ID: mentorID})
	if err != nil {
		return Session{}, err
	}
	if !prof.IsVerified() {
		return Session{}, ErrNotVerified
	}

	ns.Clean()
	now := NowFunc()
	return svc.repo.CreateSession(ctx, Session{
		MentorID:        prof.ID,
		Title:           ns.Title,
		Description:     ns.Description,
		SessionDate:     ns.SessionDate,
		StartTime:       ns.StartTime,
		EndTime:         ns.EndTime,
		SessionType:     ns.SessionType,
		MaxParticipants: ns.MaxParticipants,
		MeetingLink:     ns.MeetingLink,
		Status:          SessionAvailable,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
}

func (svc *service) ListSessions(ctx context.Context, mentorID string) ([]Session, error) {
	return svc.repo.QuerySessions(ctx, SessionFilter{MentorID: mentorID})
}

func (svc *service) UpdateSessionStatus(ctx context.Context, mentorID, sessionID, status string) (Session, error) {
	if status != SessionAvailable && status != SessionBooked && status != SessionCompleted && status != SessionCancelled {
		return Session{}, core.NewValidationError(errInvalidSessionStatus, core.FieldError{Field: "status", Error: errInvalidSessionStatus.Error()})
	}

	var sess Session
	err := svc.tx.InTx(ctx, func(exec core.DBExecutor) error {
		var err error
		if sess, err = svc.ownSession(ctx, mentorID, sessionID, exec); err != nil {
			return err
		}
		sess.Status = status
		if status == SessionAvailable {
			sess.StudentID = ""
		}
		sess.UpdatedAt = NowFunc()
		sess, err = svc.repo.UpdateSession(ctx, sess, exec)
		return err
	})
	return sess, err
}

func (svc *service) DeleteSession(ctx context.Context, mentorID, sessionID string) ([]Session, error) {
	var remaining []Session
	err := svc.tx.InTx(ctx, func(exec core.DBExecutor) error {
		if _, err := svc.ownSession(ctx, mentorID, sessionID, exec); err != nil {
			return err
		}
		if err := svc.repo.DeleteSession(ctx, sessionID, exec); err != nil {
			return errors.Wrap(err, "deleting session")
		}
		var err error
		remaining, err = svc.repo.QuerySessions(ctx, SessionFilter{MentorID: mentorID}, exec)
		return err
	})
	return remaining, err
}

func (svc *service) ownSession(ctx context.Context, mentorID, sessionID string, exec core.DBExecutor) (Session, error) {
	sess, err := svc.repo.GetSession(ctx, sessionID, exec)
	if err != nil {
		return Session{}, err
	}
	if sess.MentorID != mentorID {
		return Session{}, ErrSessionNotFound
	}
	return sess, nil
}

// ListOpenSessions returns the sessions students can still book, from today on.
func (svc *service) ListOpenSessions(ctx context.Context) ([]Session, error) {
	return svc.repo.QuerySessions(ctx, SessionFilter{
		Statuses: []string{SessionAvailable},
		FromDate: NowFunc().Format(core.DateLayout),
	})
}

func (svc *service) BookSession(ctx context.Context, sessionID, studentID string) (Session, error) {
	var sess Session
	err := svc.tx.InTx(ctx, func(exec core.DBExecutor) error {
		var err error
		if sess, err = svc.repo.GetSession(ctx, sessionID, exec); err != nil {
			return err
		}
		if sess.Status != SessionAvailable {
			return ErrSessionNotAvailable
		}
		sess, err = svc.repo.BookSession(ctx, sessionID, studentID, NowFunc(), exec)
		return err
	})
	if errors.Cause(err) == ErrSessionNotAvailable {
		return Session{}, core.NewValidationError(ErrSessionNotAvailable)
	}
	return sess, err
}

func (svc *service) sendVerificationMail(usr user.User, status string) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.FullName, Address: usr.Email}},
		Subject:      "Your mentor profile",
		TemplateName: "mentor_verification",
		TemplateData: map[string]interface{}{
			"Name":     usr.DisplayName("there"),
			"Status":   status,
			"Verified": status == StatusVerified,
		},
	})
}
