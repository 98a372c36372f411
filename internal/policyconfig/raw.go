// Package policyconfig loads the matcher's on-disk YAML configuration:
// per-application override rules and the numeric tunables listed in
// spec.md §6. It follows the teacher's raw/effective split
// (internal/config/raw.go + effective.go): every optional field is a
// pointer so "unset" is distinguishable from "zero", and BuildEffective
// applies every default exactly once.
package policyconfig

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/windlayer/matcher/internal/policy"
)

// RawRule is the on-disk form of a policy.Rule.
type RawRule struct {
	Title           *string  `yaml:"title"`
	Action          *string  `yaml:"action"`
	Threshold       *float64 `yaml:"threshold"`
	MatchProperties []string `yaml:"match_properties,omitempty"`
}

// RawConfig is the on-disk form of the whole configuration file.
type RawConfig struct {
	Overrides map[string][]RawRule `yaml:"overrides,omitempty"`

	DefaultSyncMode      *string  `yaml:"default_sync_mode"`
	DefaultMatchThreshold *float64 `yaml:"default_match_threshold"`

	SettleIdleTimeoutMs       *int64   `yaml:"settle_idle_timeout_ms"`
	SettleMaxWaitMs           *int64   `yaml:"settle_max_wait_ms"`
	MinIdleTimeBeforeMatchMs  *int64   `yaml:"min_idle_time_before_match_ms"`
	GenericTitleExtendedWaitMs *int64  `yaml:"generic_title_extended_wait_ms"`
	WorkspaceSettleTimeoutMs  *int64   `yaml:"workspace_settle_timeout_ms"`
	OperationSettleDelayMs    *int64   `yaml:"operation_settle_delay_ms"`
	DriftDetectionWindowMs    *int64   `yaml:"drift_detection_window_ms"`
	MinScoreSpread            *float64 `yaml:"min_score_spread"`
	AmbiguousSimilarityThreshold *float64 `yaml:"ambiguous_similarity_threshold"`
	AmbiguousSimilarityThresholdGeneric *float64 `yaml:"ambiguous_similarity_threshold_generic"`
	TitleMigrationThreshold    *float64 `yaml:"title_migration_threshold"`
	TitleChangeSignificanceRatio *float64 `yaml:"title_change_significance_ratio"`
	PositionTolerancePx        *int     `yaml:"position_tolerance_px"`
	MaxDriftRetries            *int     `yaml:"max_drift_retries"`
}

// ParseYAML parses raw configuration bytes. An empty document parses to a
// zero-value RawConfig, matching BuildEffective's all-default behavior.
func ParseYAML(data []byte) (RawConfig, error) {
	var raw RawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return RawConfig{}, fmt.Errorf("policyconfig: parse: %w", err)
	}
	return raw, nil
}

func convertRule(raw RawRule) (policy.Rule, error) {
	rule := policy.Rule{}
	if raw.Title != nil {
		rule.Title = *raw.Title
	}
	if raw.Action != nil {
		action, err := parseAction(*raw.Action)
		if err != nil {
			return policy.Rule{}, err
		}
		rule.Action = action
	}
	if raw.Threshold != nil {
		rule.Threshold = *raw.Threshold
	}
	for _, p := range raw.MatchProperties {
		rule.MatchProperties = append(rule.MatchProperties, policy.Property(p))
	}
	return rule, nil
}

func parseAction(s string) (policy.Action, error) {
	switch s {
	case string(policy.ActionIgnore):
		return policy.ActionIgnore, nil
	case string(policy.ActionRestore):
		return policy.ActionRestore, nil
	case string(policy.ActionDefault), "":
		return policy.ActionDefault, nil
	default:
		return "", fmt.Errorf("policyconfig: unknown action %q", s)
	}
}
