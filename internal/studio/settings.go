package studio

import (
	"fmt"
	"strings"
)

type Transition string

const (
	TransitionNone Transition = "none"
	TransitionFade Transition = "fade"
)

// ParseTransition accepts the wire names of the transitions. An empty string
// means no transition.
func ParseTransition(s string) (Transition, error) {
	switch Transition(strings.ToLower(strings.TrimSpace(s))) {
	case TransitionNone, "":
		return TransitionNone, nil
	case TransitionFade:
		return TransitionFade, nil
	default:
		return "", fmt.Errorf("unknown transition %q", s)
	}
}

// ClipSettings is the edit state of one segment's clip. All times are seconds.
// TrimEnd == 0 means "play to the clip's natural end"; Duration == 0 means the
// real duration is not known yet.
type ClipSettings struct {
	TrimStart  float64    `json:"trim_start"`
	TrimEnd    float64    `json:"trim_end"`
	Transition Transition `json:"transition"`
	Duration   float64    `json:"duration"`
}

// SettingsPatch is a partial edit. Nil fields are left untouched.
type SettingsPatch struct {
	TrimStart  *float64
	TrimEnd    *float64
	Transition *Transition
}

type SettingsStore struct {
	entries []ClipSettings
}

func NewSettingsStore() *SettingsStore {
	return &SettingsStore{}
}

// Initialize replaces all entries with segmentCount default settings.
func (s *SettingsStore) Initialize(segmentCount int) {
	s.entries = make([]ClipSettings, segmentCount)
	for i := range s.entries {
		s.entries[i] = ClipSettings{Transition: TransitionNone}
	}
}

func (s *SettingsStore) Len() int {
	return len(s.entries)
}

func (s *SettingsStore) Get(index int) (ClipSettings, bool) {
	if index < 0 || index >= len(s.entries) {
		return ClipSettings{}, false
	}
	return s.entries[index], true
}

// RecordDuration stores the real duration of the clip at index. Only the
// first observation seeds an unset TrimEnd; later ones never overwrite a trim.
func (s *SettingsStore) RecordDuration(index int, realDuration float64) error {
	if index < 0 || index >= len(s.entries) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	entry := &s.entries[index]
	first := entry.Duration == 0
	entry.Duration = realDuration
	if first && entry.TrimEnd == 0 {
		entry.TrimEnd = realDuration
	}
	return nil
}

// Update merges patch into the entry at index without validating values.
func (s *SettingsStore) Update(index int, patch SettingsPatch) (ClipSettings, error) {
	if index < 0 || index >= len(s.entries) {
		return ClipSettings{}, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	entry := &s.entries[index]
	if patch.TrimStart != nil {
		entry.TrimStart = *patch.TrimStart
	}
	if patch.TrimEnd != nil {
		entry.TrimEnd = *patch.TrimEnd
	}
	if patch.Transition != nil {
		entry.Transition = *patch.Transition
	}
	return *entry, nil
}

// All returns a copy of every entry in index order.
func (s *SettingsStore) All() []ClipSettings {
	out := make([]ClipSettings, len(s.entries))
	copy(out, s.entries)
	return out
}
