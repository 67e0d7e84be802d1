package onboarding

import (
	"context"
	"encoding/json"
	"reflect"
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/upskillhub/upskill/core"
)

var (
	// errors
	ErrNotFinalStep = errors.New("complete every step before finishing")
	ErrPersist      = errors.New("could not save your profile, please try again")

	invalidValueText = "invalid value"
)

// Fields are the form fields accumulated across the steps of a wizard.
type Fields map[string]interface{}

func (f Fields) clone() Fields {
	c := make(Fields, len(f))
	for k, v := range f {
		c[k] = v
	}
	return c
}

// StepValidator returns the errors of a step ({field: message}), nothing if it is valid.
type StepValidator func(fields Fields) map[string]string

type Step struct {
	Name     string
	Fields   []string // fields collected by the step, any field if nil
	validate StepValidator
}

func NewStep(name string, fields []string, validate StepValidator) Step {
	return Step{Name: name, Fields: fields, validate: validate}
}

func (s Step) owns(field string) bool {
	if s.Fields == nil {
		return true
	}
	for _, f := range s.Fields {
		if f == field {
			return true
		}
	}
	return false
}

// State is the progress of a user through a wizard.
type State struct {
	Variant   string            `json:"variant"`
	Step      int               `json:"step"` // 1..len(Steps)
	Steps     []string          `json:"steps"`
	Fields    Fields            `json:"fields"`
	Errors    map[string]string `json:"errors"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func (st State) clone() State {
	c := st
	c.Steps = append([]string(nil), st.Steps...)
	c.Fields = st.Fields.clone()
	c.Errors = make(map[string]string, len(st.Errors))
	for k, v := range st.Errors {
		c.Errors[k] = v
	}
	return c
}

func (st *State) fail(errs map[string]string) {
	st.Errors = errs
}

func (st *State) clearErrors() {
	st.Errors = map[string]string{}
}

// PersistFunc writes the collected fields to the role's profile, marking it onboarded.
type PersistFunc func(ctx context.Context, userID string, fields Fields) (interface{}, error)

// Wizard runs a fixed sequence of steps, validating each before advancing and persisting once at the end.
type Wizard struct {
	Variant string
	steps   []Step
	persist PersistFunc
}

func NewWizard(variant string, persist PersistFunc, steps ...Step) *Wizard {
	return &Wizard{Variant: variant, steps: steps, persist: persist}
}

func (w *Wizard) NumSteps() int { return len(w.steps) }

// Start returns the initial state: step 1, no fields, no errors.
func (w *Wizard) Start() State {
	names := make([]string, 0, len(w.steps))
	for _, s := range w.steps {
		names = append(names, s.Name)
	}
	return State{
		Variant:   w.Variant,
		Step:      1,
		Steps:     names,
		Fields:    Fields{},
		Errors:    map[string]string{},
		UpdatedAt: time.Now().UTC(),
	}
}

func (w *Wizard) current(st *State) Step {
	if st.Step < 1 {
		st.Step = 1
	}
	if st.Step > len(w.steps) {
		st.Step = len(w.steps)
	}
	return w.steps[st.Step-1]
}

// Next merges `input` into the fields and validates the current step against them.
// On failure the errors are set and the step is kept; on success the errors are cleared
// and the step is incremented, never past the last one.
func (w *Wizard) Next(st *State, input Fields) bool {
	step := w.current(st)
	for k, v := range input {
		if step.owns(k) {
			st.Fields[k] = v
		}
	}
	st.UpdatedAt = time.Now().UTC()

	if errs := step.validate(st.Fields); len(errs) > 0 {
		st.fail(errs)
		return false
	}
	st.clearErrors()
	if st.Step < len(w.steps) {
		st.Step++
	}
	return true
}

// Back returns to the previous step, never below the first one, and clears the errors.
func (w *Wizard) Back(st *State) {
	if st.Step > 1 {
		st.Step--
	}
	st.clearErrors()
	st.UpdatedAt = time.Now().UTC()
}

// Validate runs every step; on the first failing one the state is moved back to it.
func (w *Wizard) Validate(st *State) bool {
	for i, step := range w.steps {
		if errs := step.validate(st.Fields); len(errs) > 0 {
			st.Step = i + 1
			st.fail(errs)
			return false
		}
	}
	st.clearErrors()
	return true
}

// Complete persists the fields once the last step is reached and every step validates.
// A persist failure is returned as a *PersistError and the state is left untouched for a retry.
func (w *Wizard) Complete(ctx context.Context, userID string, st *State) (interface{}, error) {
	if st.Step != len(w.steps) {
		return nil, core.NewValidationError(ErrNotFinalStep)
	}
	if !w.Validate(st) {
		return nil, core.NewFieldErrors(nil, st.Errors)
	}
	res, err := w.persist(ctx, userID, st.Fields)
	if err != nil {
		if core.IsValidationError(err) || errors.Cause(err) == core.ErrOnboardingCompleted {
			return nil, err
		}
		return nil, &PersistError{Err: err}
	}
	return res, nil
}

// PersistError is returned when saving a completed wizard failed. The state is kept for a retry.
type PersistError struct {
	Err error
}

func (e *PersistError) Error() string { return ErrPersist.Error() + ": " + e.Err.Error() }
func (e *PersistError) Unwrap() error { return e.Err }

// IsPersistError reports whether the completion failed while saving and may be retried.
func IsPersistError(err error) bool {
	var pe *PersistError
	return errors.As(err, &pe)
}

type cleaner interface {
	Clean()
}

// StructStep validates a step by decoding the fields into a T.
// T is cleaned (if it has a Clean method), the cleaned values are written back to the fields,
// then it is validated; `msgs` override the translated messages.
func StructStep[T any](name string, validate *validator.Validate, translator ut.Translator, msgs core.Messages) Step {
	fields := jsonFields(reflect.TypeOf((*T)(nil)).Elem())
	return NewStep(name, fields, func(all Fields) map[string]string {
		var data T
		if errs := Decode(all, &data, msgs); len(errs) > 0 {
			return errs
		}
		if c, ok := interface{}(&data).(cleaner); ok {
			c.Clean()
			writeBack(all, &data, fields)
		}
		if err := validate.Struct(&data); err != nil {
			if errs, ok := core.FieldErrors(err, translator, msgs); ok {
				return errs
			}
			return map[string]string{"": err.Error()}
		}
		return nil
	})
}

// Decode decodes the fields into `dst`; values of the wrong type are reported per field.
func Decode(fields Fields, dst interface{}, msgs core.Messages) map[string]string {
	raw, err := json.Marshal(fields)
	if err != nil {
		return map[string]string{"": err.Error()}
	}
	if err = json.Unmarshal(raw, dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			field := typeErr.Field
			if i := strings.IndexAny(field, ".["); i > 0 {
				field = field[:i]
			}
			msg, ok := msgs.Lookup(field, "type")
			if !ok {
				msg = invalidValueText
			}
			return map[string]string{field: msg}
		}
		return map[string]string{"": invalidValueText}
	}
	return nil
}

// writeBack stores the values of `src` for `fields` in `all`.
func writeBack(all Fields, src interface{}, fields []string) {
	raw, err := json.Marshal(src)
	if err != nil {
		return
	}
	var cleaned Fields
	if err = json.Unmarshal(raw, &cleaned); err != nil {
		return
	}
	for _, f := range fields {
		if v, ok := cleaned[f]; ok {
			if _, present := all[f]; present {
				all[f] = v
			}
		}
	}
}

// jsonFields lists the JSON names of the fields of the struct type, embedded structs included.
func jsonFields(typ reflect.Type) []string {
	var fields []string
	for i := 0; i < typ.NumField(); i++ {
		fld := typ.Field(i)
		if fld.Anonymous && fld.Type.Kind() == reflect.Struct {
			fields = append(fields, jsonFields(fld.Type)...)
			continue
		}
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || fld.PkgPath != "" {
			continue
		}
		if name == "" {
			name = fld.Name
		}
		fields = append(fields, name)
	}
	return fields
}
