package internal

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/montanaflynn/stats"
)

const (
	// DefaultTimezone is used when a profile has none
	DefaultTimezone = "UTC"

	profileFallback = "Unable to update profile"
	reviewsFallback = "Unable to load reviews"
)

// SkillKind selects the offered or wanted skill list
type SkillKind string

const (
	SkillsOffered SkillKind = "offered"
	SkillsWanted  SkillKind = "wanted"
)

// ParseSkillKind accepts "offered" or "wanted"
func ParseSkillKind(s string) (SkillKind, error) {
	switch SkillKind(strings.ToLower(strings.TrimSpace(s))) {
	case SkillsOffered:
		return SkillsOffered, nil
	case SkillsWanted:
		return SkillsWanted, nil
	}
	return "", &ValidationError{Field: "kind", Reason: fmt.Sprintf("%q is not offered or wanted", s)}
}

// ProfileSaver receives the profile returned by a successful update
type ProfileSaver interface {
	SetProfile(profile *UserAccount) error
}

// ProfileEditor edits a draft of the signed-in profile
type ProfileEditor struct {
	users UsersAPI
	auth  ProfileSaver

	save    *Fetch[*UserAccount]
	reviews *Fetch[[]Review]

	mu    sync.Mutex
	draft ProfileUpdate
}

// NewProfileEditor seeds a draft from current
func NewProfileEditor(users UsersAPI, auth ProfileSaver, current *UserAccount) *ProfileEditor {
	e := &ProfileEditor{
		users:   users,
		auth:    auth,
		save:    NewFetch[*UserAccount](nil, profileFallback),
		reviews: NewFetch[[]Review](nil, reviewsFallback),
	}
	e.Reset(current)
	return e
}

// Reset replaces the draft with the fields of profile
func (e *ProfileEditor) Reset(profile *UserAccount) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.draft = DraftFrom(profile)
}

// DraftFrom copies the mutable fields of profile; timezone defaults to UTC
func DraftFrom(profile *UserAccount) ProfileUpdate {
	d := ProfileUpdate{Timezone: DefaultTimezone}
	if profile == nil {
		return d
	}
	c := cloneAccount(profile)
	d.Bio = c.Bio
	d.Location = c.Location
	if c.Timezone != "" {
		d.Timezone = c.Timezone
	}
	d.SkillsOffered = c.SkillsOffered
	d.SkillsWanted = c.SkillsWanted
	d.Availability = c.Availability
	return d
}

// Draft returns a copy of the draft
func (e *ProfileEditor) Draft() ProfileUpdate {
	e.mu.Lock()
	defer e.mu.Unlock()
	d := e.draft
	d.SkillsOffered = append([]Skill(nil), d.SkillsOffered...)
	d.SkillsWanted = append([]Skill(nil), d.SkillsWanted...)
	d.Availability = append([]AvailabilitySlot(nil), d.Availability...)
	return d
}

// SetBio sets the bio, at most MaxBioLength characters
func (e *ProfileEditor) SetBio(bio string) error {
	if utf8.RuneCountInString(bio) > MaxBioLength {
		return &ValidationError{Field: "bio", Reason: fmt.Sprintf("must be at most %d characters", MaxBioLength)}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.draft.Bio = bio
	return nil
}

// SetLocation sets the location
func (e *ProfileEditor) SetLocation(location string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.draft.Location = strings.TrimSpace(location)
}

// SetTimezone sets the timezone; empty resets it to UTC
func (e *ProfileEditor) SetTimezone(tz string) {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		tz = DefaultTimezone
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.draft.Timezone = tz
}

// AddSkill appends a skill to the offered or wanted list
func (e *ProfileEditor) AddSkill(kind SkillKind, skill Skill) error {
	skill.Name = strings.TrimSpace(skill.Name)
	if skill.Name == "" {
		return &ValidationError{Field: "skill.name", Reason: "please provide a skill name"}
	}
	if skill.Level == "" {
		skill.Level = LevelBeginner
	}
	if err := skill.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	switch kind {
	case SkillsOffered:
		e.draft.SkillsOffered = append(e.draft.SkillsOffered, skill)
	case SkillsWanted:
		e.draft.SkillsWanted = append(e.draft.SkillsWanted, skill)
	default:
		return &ValidationError{Field: "kind", Reason: fmt.Sprintf("unknown skill list %q", kind)}
	}
	return nil
}

// RemoveSkill drops the skill at index from the offered or wanted list
func (e *ProfileEditor) RemoveSkill(kind SkillKind, index int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var list *[]Skill
	switch kind {
	case SkillsOffered:
		list = &e.draft.SkillsOffered
	case SkillsWanted:
		list = &e.draft.SkillsWanted
	default:
		return &ValidationError{Field: "kind", Reason: fmt.Sprintf("unknown skill list %q", kind)}
	}
	if index < 0 || index >= len(*list) {
		return &ValidationError{Field: "index", Reason: fmt.Sprintf("%d out of range", index)}
	}
	*list = append((*list)[:index:index], (*list)[index+1:]...)
	return nil
}

// AddAvailability parses a comma-separated slot list for day and appends it
func (e *ProfileEditor) AddAvailability(day, slots, timezone string) error {
	day = strings.ToLower(strings.TrimSpace(day))
	if !validDay(day) {
		return &ValidationError{Field: "dayOfWeek", Reason: fmt.Sprintf("%q is not one of %s", day, strings.Join(Weekdays, ","))}
	}
	parsed := SplitSlots(slots)
	if len(parsed) == 0 {
		return &ValidationError{Field: "slots", Reason: "add at least one slot"}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if timezone = strings.TrimSpace(timezone); timezone == "" {
		timezone = e.draft.Timezone
	}
	e.draft.Availability = append(e.draft.Availability, AvailabilitySlot{
		DayOfWeek: day,
		Slots:     parsed,
		Timezone:  timezone,
	})
	return nil
}

// RemoveAvailability drops the availability entry at index
func (e *ProfileEditor) RemoveAvailability(index int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if index < 0 || index >= len(e.draft.Availability) {
		return &ValidationError{Field: "index", Reason: fmt.Sprintf("%d out of range", index)}
	}
	e.draft.Availability = append(e.draft.Availability[:index:index], e.draft.Availability[index+1:]...)
	return nil
}

// SplitSlots splits "09:00-10:00, 14:00-15:00" into trimmed non-empty entries
func SplitSlots(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func validDay(day string) bool {
	for _, d := range Weekdays {
		if d == day {
			return true
		}
	}
	return false
}

// Save sends the draft and hands the updated profile to the auth manager
func (e *ProfileEditor) Save(ctx context.Context) (*UserAccount, error) {
	draft := e.Draft()
	if utf8.RuneCountInString(draft.Bio) > MaxBioLength {
		return nil, &ValidationError{Field: "bio", Reason: fmt.Sprintf("must be at most %d characters", MaxBioLength)}
	}

	updated, err := e.save.Mutate(ctx, func(ctx context.Context) (*UserAccount, error) {
		return e.users.UpdateProfile(ctx, draft)
	})
	if err != nil {
		return nil, err
	}
	if err := e.auth.SetProfile(updated); err != nil {
		return nil, err
	}
	e.Reset(updated)
	return updated, nil
}

// SaveError returns the message of the last failed save
func (e *ProfileEditor) SaveError() string {
	return e.save.State().Error
}

// ReviewSummary aggregates the ratings of a user's reviews
type ReviewSummary struct {
	Count  int
	Mean   float64
	Median float64
}

// Reviews loads the reviews left for userID
func (e *ProfileEditor) Reviews(ctx context.Context, userID string) ([]Review, ReviewSummary, error) {
	if userID == "" {
		return nil, ReviewSummary{}, &ValidationError{Field: "user", Reason: "is required"}
	}
	list, err := e.reviews.Do(ctx, func(ctx context.Context) ([]Review, error) {
		return e.users.UserReviews(ctx, userID)
	})
	if err != nil {
		return nil, ReviewSummary{}, err
	}
	return list, Summarize(list), nil
}

// Summarize computes count, mean and median rating
func Summarize(reviews []Review) ReviewSummary {
	if len(reviews) == 0 {
		return ReviewSummary{}
	}
	ratings := make([]int, 0, len(reviews))
	for _, r := range reviews {
		ratings = append(ratings, r.Rating)
	}
	data := stats.LoadRawData(ratings)
	mean, _ := stats.Mean(data)
	median, _ := stats.Median(data)
	return ReviewSummary{Count: len(reviews), Mean: mean, Median: median}
}

// Lookup fetches another member's profile
func (e *ProfileEditor) Lookup(ctx context.Context, id string) (*UserAccount, error) {
	if id == "" {
		return nil, &ValidationError{Field: "user", Reason: "is required"}
	}
	return e.users.Profile(ctx, id)
}

// ParseSkillList turns "Go, Guitar" into beginner skills with no experience
func ParseSkillList(s string) []Skill {
	var skills []Skill
	for _, name := range SplitSlots(s) {
		skills = append(skills, Skill{Name: name, Level: LevelBeginner})
	}
	return skills
}
