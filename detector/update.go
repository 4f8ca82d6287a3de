package detector

import (
	"errors"
	"fmt"
	"slices"
)

// UpdateReason says which update rule a new configuration broke.
type UpdateReason int

const (
	// UpdateFuzzylistAddition: the new fuzzylist holds an entry the base
	// does not. Fuzzylists may only shrink.
	UpdateFuzzylistAddition UpdateReason = iota + 1
	// UpdateToleranceIncrease: the new tolerance is above the base.
	UpdateToleranceIncrease
)

// UpdateError describes one broken update rule.
type UpdateError struct {
	Reason UpdateReason
	Name   string
	Entry  string
	Old    int
	New    int
}

func (e *UpdateError) Error() string {
	prefix := "config"
	if e.Name != "" {
		prefix = fmt.Sprintf("config %q", e.Name)
	}
	switch e.Reason {
	case UpdateFuzzylistAddition:
		return fmt.Sprintf("%s: unexpected fuzzylist entry %q", prefix, e.Entry)
	case UpdateToleranceIncrease:
		return fmt.Sprintf("%s: new tolerance %d must be <= old tolerance %d", prefix, e.New, e.Old)
	default:
		return prefix + ": invalid update"
	}
}

// ValidateUpdate checks that next is an acceptable successor of base:
// no configuration may add fuzzylist entries or raise its tolerance.
// Configurations are paired by name; a configuration of next without a
// counterpart in base is new and not checked. Every violation is returned,
// joined with errors.Join.
func ValidateUpdate(base, next Input) error {
	if err := ValidateInput(base); err != nil {
		return fmt.Errorf("base: %w", err)
	}
	if err := ValidateInput(next); err != nil {
		return fmt.Errorf("next: %w", err)
	}

	previous := make(map[string]Config)
	for _, c := range base.Configs() {
		if _, ok := previous[c.Name]; !ok {
			previous[c.Name] = c
		}
	}

	var errs []error
	for _, c := range next.Configs() {
		old, ok := previous[c.Name]
		if !ok {
			continue
		}
		for _, entry := range c.Fuzzylist {
			if !slices.Contains(old.Fuzzylist, entry) {
				errs = append(errs, &UpdateError{Reason: UpdateFuzzylistAddition, Name: c.Name, Entry: entry})
			}
		}
		if o, n := old.EffectiveTolerance(), c.EffectiveTolerance(); n > o {
			errs = append(errs, &UpdateError{Reason: UpdateToleranceIncrease, Name: c.Name, Old: o, New: n})
		}
	}
	return errors.Join(errs...)
}
