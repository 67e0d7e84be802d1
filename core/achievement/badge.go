package achievement

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// BadgeKind is one of the finite set of badges a student can earn.
type BadgeKind int

const (
	FirstSteps BadgeKind = iota + 1
	FastLearner
	CourseFinisher
	InternshipReady
	RisingStar
)

// Descriptor is how a badge is displayed.
type Descriptor struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Color       string `json:"color"`
}

type badgeInfo struct {
	slug string
	Descriptor
}

var badges = [...]badgeInfo{
	FirstSteps: {"first_steps", Descriptor{
		Title:       "First Steps",
		Description: "Completed your first lesson",
		Icon:        "footprints",
		Color:       "emerald",
	}},
	FastLearner: {"fast_learner", Descriptor{
		Title:       "Fast Learner",
		Description: "Completed 5 lessons in a single day",
		Icon:        "zap",
		Color:       "amber",
	}},
	CourseFinisher: {"course_finisher", Descriptor{
		Title:       "Course Finisher",
		Description: "Completed a full course",
		Icon:        "trophy",
		Color:       "violet",
	}},
	InternshipReady: {"internship_ready", Descriptor{
		Title:       "Internship Ready",
		Description: "Completed courses in 3 different skill tracks",
		Icon:        "briefcase",
		Color:       "sky",
	}},
	RisingStar: {"rising_star", Descriptor{
		Title:       "Rising Star",
		Description: "Recognised for outstanding progress",
		Icon:        "star",
		Color:       "rose",
	}},
}

var ErrUnknownBadge = errors.New("unknown badge")

// AllBadgeKinds lists every badge in display order.
func AllBadgeKinds() []BadgeKind {
	return []BadgeKind{FirstSteps, FastLearner, CourseFinisher, InternshipReady, RisingStar}
}

func (k BadgeKind) Valid() bool { return k >= FirstSteps && int(k) < len(badges) }

func (k BadgeKind) String() string {
	if !k.Valid() {
		return "unknown"
	}
	return badges[k].slug
}

// Descriptor returns the display descriptor of the badge (the zero value for unknown kinds).
func (k BadgeKind) Descriptor() Descriptor {
	if !k.Valid() {
		return Descriptor{}
	}
	return badges[k].Descriptor
}

// ParseBadgeKind rejects anything that is not a known badge slug.
func ParseBadgeKind(s string) (BadgeKind, error) {
	for _, k := range AllBadgeKinds() {
		if badges[k].slug == s {
			return k, nil
		}
	}
	return 0, errors.Wrapf(ErrUnknownBadge, "%q", s)
}

func (k BadgeKind) MarshalJSON() ([]byte, error) {
	if !k.Valid() {
		return nil, ErrUnknownBadge
	}
	return json.Marshal(k.String())
}

func (k *BadgeKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	kind, err := ParseBadgeKind(s)
	if err != nil {
		return err
	}
	*k = kind
	return nil
}
