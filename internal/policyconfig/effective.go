package policyconfig

import (
	"fmt"
	"os"
	"time"

	"github.com/windlayer/matcher/internal/policy"
)

// Options holds the numeric timing and threshold tunables from spec.md §6,
// with defaults applied. The default action and match threshold live in
// the policy Resolver instead, and the similarity engine's constants are
// fixed in internal/similarity.
type Options struct {
	SettleIdleTimeout             time.Duration
	SettleMaxWait                 time.Duration
	MinIdleTimeBeforeMatch         time.Duration
	GenericTitleExtendedWait       time.Duration
	WorkspaceSettleTimeout         time.Duration
	OperationSettleDelay           time.Duration
	DriftDetectionWindow           time.Duration
	MinScoreSpread                 float64
	AmbiguousSimilarityThreshold   float64
	AmbiguousSimilarityThresholdGeneric float64
	TitleMigrationThreshold         float64
	TitleChangeSignificanceRatio     float64
	PositionTolerancePx             int
	MaxDriftRetries                 int
}

// DefaultOptions returns the table of defaults from §6.
func DefaultOptions() Options {
	return Options{
		SettleIdleTimeout:                   500 * time.Millisecond,
		SettleMaxWait:                       2500 * time.Millisecond,
		MinIdleTimeBeforeMatch:              300 * time.Millisecond,
		GenericTitleExtendedWait:            15000 * time.Millisecond,
		WorkspaceSettleTimeout:              500 * time.Millisecond,
		OperationSettleDelay:                200 * time.Millisecond,
		DriftDetectionWindow:                500 * time.Millisecond,
		MinScoreSpread:                      0.6,
		AmbiguousSimilarityThreshold:        0.95,
		AmbiguousSimilarityThresholdGeneric: 0.99,
		TitleMigrationThreshold:             0.95,
		TitleChangeSignificanceRatio:        2.0,
		PositionTolerancePx:                 10,
		MaxDriftRetries:                     3,
	}
}

// Effective is the fully-resolved configuration: tunables plus a built
// policy.Resolver.
type Effective struct {
	Options  Options
	Resolver *policy.Resolver
}

// BuildEffective merges a RawConfig onto DefaultOptions(), following the
// teacher's BuildEffectiveConfig pattern: every raw.Field != nil overrides
// exactly the corresponding default, once.
func BuildEffective(raw RawConfig) (*Effective, error) {
	opts := DefaultOptions()

	if raw.SettleIdleTimeoutMs != nil {
		opts.SettleIdleTimeout = time.Duration(*raw.SettleIdleTimeoutMs) * time.Millisecond
	}
	if raw.SettleMaxWaitMs != nil {
		opts.SettleMaxWait = time.Duration(*raw.SettleMaxWaitMs) * time.Millisecond
	}
	if raw.MinIdleTimeBeforeMatchMs != nil {
		opts.MinIdleTimeBeforeMatch = time.Duration(*raw.MinIdleTimeBeforeMatchMs) * time.Millisecond
	}
	if raw.GenericTitleExtendedWaitMs != nil {
		opts.GenericTitleExtendedWait = time.Duration(*raw.GenericTitleExtendedWaitMs) * time.Millisecond
	}
	if raw.WorkspaceSettleTimeoutMs != nil {
		opts.WorkspaceSettleTimeout = time.Duration(*raw.WorkspaceSettleTimeoutMs) * time.Millisecond
	}
	if raw.OperationSettleDelayMs != nil {
		opts.OperationSettleDelay = time.Duration(*raw.OperationSettleDelayMs) * time.Millisecond
	}
	if raw.DriftDetectionWindowMs != nil {
		opts.DriftDetectionWindow = time.Duration(*raw.DriftDetectionWindowMs) * time.Millisecond
	}
	if raw.MinScoreSpread != nil {
		opts.MinScoreSpread = *raw.MinScoreSpread
	}
	if raw.AmbiguousSimilarityThreshold != nil {
		opts.AmbiguousSimilarityThreshold = *raw.AmbiguousSimilarityThreshold
	}
	if raw.AmbiguousSimilarityThresholdGeneric != nil {
		opts.AmbiguousSimilarityThresholdGeneric = *raw.AmbiguousSimilarityThresholdGeneric
	}
	if raw.TitleMigrationThreshold != nil {
		opts.TitleMigrationThreshold = *raw.TitleMigrationThreshold
	}
	if raw.TitleChangeSignificanceRatio != nil {
		opts.TitleChangeSignificanceRatio = *raw.TitleChangeSignificanceRatio
	}
	if raw.PositionTolerancePx != nil {
		opts.PositionTolerancePx = *raw.PositionTolerancePx
	}
	if raw.MaxDriftRetries != nil {
		opts.MaxDriftRetries = *raw.MaxDriftRetries
	}

	defaults := policy.Defaults{Action: policy.ActionRestore, Threshold: 0.8}
	if raw.DefaultSyncMode != nil {
		action, err := parseAction(*raw.DefaultSyncMode)
		if err != nil {
			return nil, fmt.Errorf("policyconfig: default_sync_mode: %w", err)
		}
		if action == policy.ActionDefault {
			return nil, fmt.Errorf("policyconfig: default_sync_mode must be IGNORE or RESTORE")
		}
		defaults.Action = action
	}
	if raw.DefaultMatchThreshold != nil {
		defaults.Threshold = *raw.DefaultMatchThreshold
	}

	overrides := make(map[string][]policy.Rule, len(raw.Overrides))
	for wmClass, rawRules := range raw.Overrides {
		rules := make([]policy.Rule, 0, len(rawRules))
		for _, rawRule := range rawRules {
			rule, err := convertRule(rawRule)
			if err != nil {
				return nil, fmt.Errorf("policyconfig: overrides.%s: %w", wmClass, err)
			}
			rules = append(rules, rule)
		}
		overrides[wmClass] = rules
	}

	return &Effective{
		Options:  opts,
		Resolver: policy.NewResolver(overrides, defaults),
	}, nil
}

// LoadFromPath reads and parses a YAML configuration file. A missing file
// resolves to all-default configuration, matching the teacher's
// LoadFromPath behavior for an empty file.
func LoadFromPath(path string) (*Effective, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return BuildEffective(RawConfig{})
		}
		return nil, fmt.Errorf("policyconfig: read %s: %w", path, err)
	}
	raw, err := ParseYAML(data)
	if err != nil {
		return nil, err
	}
	return BuildEffective(raw)
}
