package onboarding

import (
	"context"
	"strconv"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/upskillhub/upskill/core"
	"github.com/upskillhub/upskill/core/mentor"
	"github.com/upskillhub/upskill/core/school"
	"github.com/upskillhub/upskill/core/student"
)

// Variants
const (
	Student = "student"
	Mentor  = "mentor"
	School  = "school"
)

const MentorPendingMessage = "Your mentor profile is now pending verification."

var (
	// errors
	ErrUnknownVariant        = errors.New("unknown onboarding")
	ErrQualificationNotFound = errors.New("qualification not found")

	// Dashboards are where each variant redirects once completed.
	Dashboards = map[string]string{
		Student: "/student/dashboard",
		Mentor:  "/mentor/dashboard",
		School:  "/school/dashboard",
	}
)

// Result is returned once a wizard has been completed.
type Result struct {
	Profile  interface{} `json:"profile"`
	Message  string      `json:"message,omitempty"`
	Redirect string      `json:"redirect"`
}

type (
	Service interface {
		// Completed reports whether the user's profile for the variant is already onboarded.
		Completed(ctx context.Context, userID, variant string) (bool, error)
		State(ctx context.Context, userID, variant string) (State, error)
		// Next validates the current step; ok is false (and State.Errors set) when the step is blocked.
		Next(ctx context.Context, userID, variant string, input Fields) (st State, ok bool, err error)
		Back(ctx context.Context, userID, variant string) (State, error)
		Complete(ctx context.Context, userID, variant string) (Result, State, error)

		AddQualification(ctx context.Context, userID string, input Fields) (st State, ok bool, err error)
		RemoveQualification(ctx context.Context, userID string, index int) (State, error)
	}

	service struct {
		store      *Store
		wizards    map[string]*Wizard
		validate   *validator.Validate
		translator ut.Translator
		studentSvc student.Service
		mentorSvc  mentor.Service
		schoolSvc  school.Service
	}
)

var _ Service = (*service)(nil) // interface compliance check

func NewService(
	store *Store,
	validate *validator.Validate,
	translator ut.Translator,
	studentSvc student.Service,
	mentorSvc mentor.Service,
	schoolSvc school.Service,
) Service {
	svc := &service{
		store:      store,
		validate:   validate,
		translator: translator,
		studentSvc: studentSvc,
		mentorSvc:  mentorSvc,
		schoolSvc:  schoolSvc,
	}
	svc.wizards = map[string]*Wizard{
		Student: NewStudentWizard(validate, translator, studentSvc),
		Mentor:  NewMentorWizard(validate, translator, mentorSvc),
		School:  NewSchoolWizard(validate, translator, schoolSvc),
	}
	return svc
}

// NewStudentWizard: details -> skill tracks -> interests.
func NewStudentWizard(validate *validator.Validate, translator ut.Translator, svc student.Service) *Wizard {
	return NewWizard(
		Student,
		func(ctx context.Context, userID string, fields Fields) (interface{}, error) {
			var data student.Onboarding
			if errs := Decode(fields, &data, student.Messages); len(errs) > 0 {
				return nil, core.NewFieldErrors(nil, errs)
			}
			data.Clean()
			return svc.CompleteOnboarding(ctx, userID, data)
		},
		StructStep[student.DetailsStep]("details", validate, translator, student.Messages),
		StructStep[student.TracksStep]("skill_tracks", validate, translator, student.Messages),
		StructStep[student.InterestsStep]("interests", validate, translator, student.Messages),
	)
}

// NewMentorWizard: profile -> qualifications -> review.
func NewMentorWizard(validate *validator.Validate, translator ut.Translator, svc mentor.Service) *Wizard {
	return NewWizard(
		Mentor,
		func(ctx context.Context, userID string, fields Fields) (interface{}, error) {
			var data mentor.Onboarding
			if errs := Decode(fields, &data, mentor.ProfileMessages); len(errs) > 0 {
				return nil, core.NewFieldErrors(nil, errs)
			}
			data.Clean()
			return svc.CompleteOnboarding(ctx, userID, data.ProfileInput, data.Qualifications)
		},
		StructStep[mentor.ProfileInput]("profile", validate, translator, mentor.ProfileMessages),
		StructStep[mentor.QualificationsStep]("qualifications", validate, translator, mentor.QualificationMessages),
		NewStep("review", []string{}, func(Fields) map[string]string { return nil }),
	)
}

// NewSchoolWizard has a single step.
func NewSchoolWizard(validate *validator.Validate, translator ut.Translator, svc school.Service) *Wizard {
	return NewWizard(
		School,
		func(ctx context.Context, userID string, fields Fields) (interface{}, error) {
			var data school.Onboarding
			if errs := Decode(fields, &data, school.Messages); len(errs) > 0 {
				return nil, core.NewFieldErrors(nil, errs)
			}
			data.Clean()
			return svc.CompleteOnboarding(ctx, userID, data)
		},
		StructStep[school.Onboarding]("details", validate, translator, school.Messages),
	)
}

func (svc *service) wizard(variant string) (*Wizard, error) {
	w, ok := svc.wizards[variant]
	if !ok {
		return nil, ErrUnknownVariant
	}
	return w, nil
}

func (svc *service) Completed(ctx context.Context, userID, variant string) (bool, error) {
	var (
		done bool
		err  error
	)
	switch variant {
	case Student:
		var p student.Profile
		p, err = svc.studentSvc.GetByUserID(ctx, userID)
		done = p.OnboardingCompleted
		if errors.Cause(err) == student.ErrNotFound {
			err = nil
		}
	case Mentor:
		var p mentor.Profile
		p, err = svc.mentorSvc.GetByUserID(ctx, userID)
		done = p.OnboardingCompleted
		if errors.Cause(err) == mentor.ErrNotFound {
			err = nil
		}
	case School:
		var p school.Profile
		p, err = svc.schoolSvc.GetByUserID(ctx, userID)
		done = p.OnboardingCompleted
		if errors.Cause(err) == school.ErrNotFound {
			err = nil
		}
	default:
		return false, ErrUnknownVariant
	}
	return done, err
}

// load returns the wizard and the current state of the user, rejecting onboarded users.
func (svc *service) load(ctx context.Context, userID, variant string) (*Wizard, State, error) {
	w, err := svc.wizard(variant)
	if err != nil {
		return nil, State{}, err
	}
	done, err := svc.Completed(ctx, userID, variant)
	if err != nil {
		return nil, State{}, errors.Wrap(err, "checking onboarding status")
	}
	if done {
		svc.store.Delete(userID, variant)
		return nil, State{}, core.ErrOnboardingCompleted
	}
	st, ok := svc.store.Get(userID, variant)
	if !ok {
		st = w.Start()
	}
	return w, st, nil
}

func (svc *service) State(ctx context.Context, userID, variant string) (State, error) {
	_, st, err := svc.load(ctx, userID, variant)
	return st, err
}

func (svc *service) Next(ctx context.Context, userID, variant string, input Fields) (State, bool, error) {
	w, st, err := svc.load(ctx, userID, variant)
	if err != nil {
		return State{}, false, err
	}
	ok := w.Next(&st, input)
	svc.store.Put(userID, st)
	return st, ok, nil
}

func (svc *service) Back(ctx context.Context, userID, variant string) (State, error) {
	w, st, err := svc.load(ctx, userID, variant)
	if err != nil {
		return State{}, err
	}
	w.Back(&st)
	svc.store.Put(userID, st)
	return st, nil
}

func (svc *service) Complete(ctx context.Context, userID, variant string) (Result, State, error) {
	w, st, err := svc.load(ctx, userID, variant)
	if err != nil {
		return Result{}, State{}, err
	}
	prof, err := w.Complete(ctx, userID, &st)
	if err != nil {
		if !IsPersistError(err) {
			svc.store.Put(userID, st)
		}
		return Result{}, st, err
	}
	svc.store.Delete(userID, variant)

	res := Result{Profile: prof, Redirect: Dashboards[variant]}
	if variant == Mentor {
		res.Message = MentorPendingMessage
	}
	return res, st, nil
}

// AddQualification validates a single qualification and appends it to the mentor's qualifications.
func (svc *service) AddQualification(ctx context.Context, userID string, input Fields) (State, bool, error) {
	_, st, err := svc.load(ctx, userID, Mentor)
	if err != nil {
		return State{}, false, err
	}

	var qual mentor.QualificationInput
	if errs := Decode(input, &qual, mentor.QualificationMessages); len(errs) > 0 {
		st.fail(errs)
		svc.store.Put(userID, st)
		return st, false, nil
	}
	qual.Clean()
	if err = svc.validate.Struct(qual); err != nil {
		errs, ok := core.FieldErrors(err, svc.translator, mentor.QualificationMessages)
		if !ok {
			return State{}, false, err
		}
		st.fail(errs)
		svc.store.Put(userID, st)
		return st, false, nil
	}

	quals := svc.qualifications(st)
	quals = append(quals, qual)
	st.Fields["qualifications"] = quals
	st.clearErrors()
	svc.store.Put(userID, st)
	return st, true, nil
}

// RemoveQualification removes the qualification at `index` (0-based).
func (svc *service) RemoveQualification(ctx context.Context, userID string, index int) (State, error) {
	_, st, err := svc.load(ctx, userID, Mentor)
	if err != nil {
		return State{}, err
	}
	quals := svc.qualifications(st)
	if index < 0 || index >= len(quals) {
		return State{}, errors.Wrap(ErrQualificationNotFound, strconv.Itoa(index))
	}
	kept := make([]mentor.QualificationInput, 0, len(quals)-1)
	kept = append(kept, quals[:index]...)
	kept = append(kept, quals[index+1:]...)
	st.Fields["qualifications"] = kept
	st.clearErrors()
	svc.store.Put(userID, st)
	return st, nil
}

func (svc *service) qualifications(st State) []mentor.QualificationInput {
	var step mentor.QualificationsStep
	if errs := Decode(Fields{"qualifications": st.Fields["qualifications"]}, &step, nil); len(errs) > 0 {
		return []mentor.QualificationInput{}
	}
	if step.Qualifications == nil {
		return []mentor.QualificationInput{}
	}
	return step.Qualifications
}
