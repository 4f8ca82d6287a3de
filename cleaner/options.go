package cleaner

import (
	"fmt"

	"go.uber.org/zap"
)

// AllowlistPolicy selects how CleanAllowlist decides that an entry is
// redundant.
type AllowlistPolicy int

const (
	// LeaveOneOut drops an entry when a detector built without it still
	// lets the entry through, then re-admits any dropped entry that the
	// reduced list would block. This is the default.
	LeaveOneOut AllowlistPolicy = iota
	// SinglePass keeps an entry only when a parent domain of it is on the
	// blocklist or the fuzzylist alone would flag it.
	SinglePass
	// KeepAll never drops an entry for being unneeded. Duplicates are
	// still removed. Use it when the allowlist is consumed on its own by
	// other tools.
	KeepAll
)

func (p AllowlistPolicy) String() string {
	switch p {
	case LeaveOneOut:
		return "leave-one-out"
	case SinglePass:
		return "single-pass"
	case KeepAll:
		return "keep-all"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParseAllowlistPolicy parses the String form of a policy.
func ParseAllowlistPolicy(s string) (AllowlistPolicy, error) {
	for _, p := range []AllowlistPolicy{LeaveOneOut, SinglePass, KeepAll} {
		if p.String() == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown allowlist policy %q", s)
}

type CleanerConfig struct {
	log    *zap.SugaredLogger
	policy AllowlistPolicy
}

type CleanerOptions func(*CleanerConfig) error

// WithLogger sets the logger redundancies are reported to.
func WithLogger(log *zap.SugaredLogger) CleanerOptions {
	return func(config *CleanerConfig) error {
		config.log = log
		return nil
	}
}

// WithAllowlistPolicy selects the allowlist policy. Default is LeaveOneOut.
func WithAllowlistPolicy(p AllowlistPolicy) CleanerOptions {
	return func(config *CleanerConfig) error {
		switch p {
		case LeaveOneOut, SinglePass, KeepAll:
			config.policy = p
			return nil
		default:
			return fmt.Errorf("unknown allowlist policy %d", int(p))
		}
	}
}
