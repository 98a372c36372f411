// Package policy resolves the match action, score threshold, and allowed
// managed properties for a given (wm_class, title) pair (§4.2).
package policy

// Action is the policy action chosen for a window.
type Action string

const (
	ActionIgnore  Action = "IGNORE"
	ActionRestore Action = "RESTORE"
	ActionDefault Action = "DEFAULT"
)

// Property names the managed window properties the planner is allowed to
// touch. A nil AllowedProperties on Policy means "all managed properties
// allowed" (§4.2).
type Property string

const (
	PropertyPosition    Property = "position"
	PropertySize        Property = "size"
	PropertyWorkspace   Property = "workspace"
	PropertyMonitor     Property = "monitor"
	PropertyMaximized   Property = "maximized"
	PropertyMinimized   Property = "minimized"
	PropertyFullscreen  Property = "fullscreen"
)

// Rule is a single override entry for a wm_class.
type Rule struct {
	// Title, if non-empty, must match exactly for this rule to win.
	// A rule with an empty Title is the "generic" rule for its wm_class.
	Title            string
	Action           Action
	Threshold        float64
	MatchProperties  []Property
}

// Policy is the resolved outcome for a (wm_class, title) pair.
type Policy struct {
	Action             Action
	Threshold          float64
	AllowedProperties  []Property // nil means "all"
}

// Allows reports whether prop may be touched under this policy.
func (p Policy) Allows(prop Property) bool {
	if p.AllowedProperties == nil {
		return true
	}
	for _, allowed := range p.AllowedProperties {
		if allowed == prop {
			return true
		}
	}
	return false
}

// Defaults carries the configured default action/threshold (§6:
// DEFAULT_SYNC_MODE, DEFAULT_MATCH_THRESHOLD).
type Defaults struct {
	Action    Action
	Threshold float64
}

// Resolver resolves policy from a set of per-wm_class override rules plus
// defaults. Its methods never modify it, so concurrent reads are safe;
// the dispatcher reads it from several goroutines under the store lock.
type Resolver struct {
	overrides map[string][]Rule
	defaults  Defaults
}

// NewResolver builds a Resolver from overrides (wm_class -> ordered rule
// list) and defaults.
func NewResolver(overrides map[string][]Rule, defaults Defaults) *Resolver {
	if defaults.Action == "" {
		defaults.Action = ActionRestore
	}
	return &Resolver{overrides: overrides, defaults: defaults}
}

// Resolve implements the §4.2 resolution order: exact title match wins;
// otherwise the first rule with no title (the generic rule) wins;
// otherwise the configured defaults apply.
func (r *Resolver) Resolve(wmClass, title string) Policy {
	rules := r.overrides[wmClass]

	for _, rule := range rules {
		if rule.Title != "" && rule.Title == title {
			return policyFromRule(rule, r.defaults)
		}
	}
	for _, rule := range rules {
		if rule.Title == "" {
			return policyFromRule(rule, r.defaults)
		}
	}

	return Policy{
		Action:            r.defaults.Action,
		Threshold:         r.defaults.Threshold,
		AllowedProperties: nil,
	}
}

func policyFromRule(rule Rule, defaults Defaults) Policy {
	action := rule.Action
	if action == "" || action == ActionDefault {
		action = defaults.Action
	}
	threshold := rule.Threshold
	if threshold == 0 {
		threshold = defaults.Threshold
	}
	return Policy{
		Action:            action,
		Threshold:         threshold,
		AllowedProperties: rule.MatchProperties,
	}
}
