package config

import (
	"hash/fnv"
	"os"
	"strconv"
	"strings"
	"sync"
)

// FeatureFlags are runtime toggles with per-user percentage rollout.
type FeatureFlags struct {
	mu            sync.RWMutex
	features      map[string]*Feature
	userOverrides map[int64]map[string]bool
}

type Feature struct {
	Name           string
	Description    string
	Enabled        bool
	RolloutPercent int
}

// FeatureContext identifies who a flag is evaluated for.
type FeatureContext struct {
	UserID int64
}

// Flag names.
const (
	// Completing an already completed goal completes and rewards it again.
	FeatureGoalRecompletion = "engine.goal_recompletion"

	// Publish domain events to Redis pub/sub in addition to in-process subscribers.
	FeatureRedisEvents = "events.redis_fanout"

	// Auto-create unknown users on GET /api/dashboard.
	FeatureDashboardAutoRegister = "http.dashboard_auto_register"
)

var defaultFeatures = []Feature{
	{Name: FeatureGoalRecompletion, Description: "Allow completing a goal more than once"},
	{Name: FeatureRedisEvents, Description: "Fan out domain events over Redis pub/sub"},
	{Name: FeatureDashboardAutoRegister, Description: "Create users on first dashboard visit", Enabled: true, RolloutPercent: 100},
}

// LoadFeatureFlags starts from defaultFeatures and applies
// FEATURE_<NAME>=true|false|<percent> overrides, e.g.
// FEATURE_ENGINE_GOAL_RECOMPLETION=25.
func LoadFeatureFlags() *FeatureFlags {
	ff := &FeatureFlags{
		features:      make(map[string]*Feature, len(defaultFeatures)),
		userOverrides: make(map[int64]map[string]bool),
	}

	for _, def := range defaultFeatures {
		f := def
		if percent, ok := parseRollout(os.Getenv(envKey(f.Name))); ok {
			f.Enabled, f.RolloutPercent = percent > 0, percent
		}
		ff.features[f.Name] = &f
	}
	return ff
}

// parseRollout accepts a boolean or a 0-100 percentage.
func parseRollout(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	if on, err := strconv.ParseBool(raw); err == nil {
		if on {
			return 100, true
		}
		return 0, true
	}
	if p, err := strconv.Atoi(raw); err == nil && p >= 0 && p <= 100 {
		return p, true
	}
	return 0, false
}

// envKey maps "engine.goal_recompletion" to FEATURE_ENGINE_GOAL_RECOMPLETION.
func envKey(name string) string {
	return "FEATURE_" + strings.ToUpper(strings.ReplaceAll(name, ".", "_"))
}

// IsEnabled applies, in order: the per-user override, the global switch,
// then the rollout bucket. Without a user only a full rollout counts.
func (ff *FeatureFlags) IsEnabled(name string, fc *FeatureContext) bool {
	if ff == nil {
		return false
	}

	ff.mu.RLock()
	defer ff.mu.RUnlock()

	var userID int64
	if fc != nil {
		userID = fc.UserID
	}

	if on, ok := ff.userOverrides[userID][name]; ok && userID != 0 {
		return on
	}

	f, ok := ff.features[name]
	switch {
	case !ok || !f.Enabled:
		return false
	case f.RolloutPercent >= 100:
		return true
	case userID == 0:
		return false
	default:
		return inRollout(userID, name, f.RolloutPercent)
	}
}

// inRollout hashes the flag and user so a user keeps their bucket.
func inRollout(userID int64, featureName string, percent int) bool {
	h := fnv.New32a()
	_, _ = h.Write([]byte(featureName + ":" + strconv.FormatInt(userID, 10)))
	return int(h.Sum32()%100) < percent
}

// Set switches a flag globally, creating it if unknown.
func (ff *FeatureFlags) Set(name string, enabled bool) {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	f, ok := ff.features[name]
	if !ok {
		f = &Feature{Name: name}
		ff.features[name] = f
	}
	f.Enabled = enabled
	f.RolloutPercent = 0
	if enabled {
		f.RolloutPercent = 100
	}
}

// SetUserOverride sets a feature override for a specific user.
func (ff *FeatureFlags) SetUserOverride(userID int64, featureName string, enabled bool) {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	if ff.userOverrides[userID] == nil {
		ff.userOverrides[userID] = make(map[string]bool)
	}
	ff.userOverrides[userID][featureName] = enabled
}
