package config

import (
	"sort"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

// FeatureFlags holds runtime feature toggles. Values come from the
// "features" config section (FEATURES_<NAME> in the environment) and may
// be flipped at runtime, e.g. from tests.
type FeatureFlags struct {
	mu       sync.RWMutex
	features map[string]bool
}

// Predefined feature flag names.
const (
	// FeatureAdminAPI exposes POST /api/v1/admin/achievements.
	FeatureAdminAPI = "admin_api"

	// FeatureRecentFeed keeps the recent-awards feed and its endpoint.
	FeatureRecentFeed = "recent_feed"

	// FeatureSeedDefinitions loads built-in achievements when the
	// definition store is empty at startup.
	FeatureSeedDefinitions = "seed_definitions"
)

var defaultFeatures = map[string]bool{
	FeatureAdminAPI:        true,
	FeatureRecentFeed:      true,
	FeatureSeedDefinitions: true,
}

func featureKey(name string) string {
	return "features." + name
}

// loadFeatureFlags reads every known flag from v.
func loadFeatureFlags(v *viper.Viper) *FeatureFlags {
	ff := NewFeatureFlags(nil)
	for name := range defaultFeatures {
		ff.features[name] = v.GetBool(featureKey(name))
	}
	return ff
}

// NewFeatureFlags returns flags with defaults overridden by overrides.
func NewFeatureFlags(overrides map[string]bool) *FeatureFlags {
	ff := &FeatureFlags{features: make(map[string]bool, len(defaultFeatures))}
	for name, enabled := range defaultFeatures {
		ff.features[name] = enabled
	}
	for name, enabled := range overrides {
		ff.features[strings.ToLower(name)] = enabled
	}
	return ff
}

// IsEnabled reports whether a feature is on. Unknown features are off.
// A nil receiver behaves like the defaults.
func (ff *FeatureFlags) IsEnabled(name string) bool {
	if ff == nil {
		return defaultFeatures[name]
	}
	ff.mu.RLock()
	defer ff.mu.RUnlock()
	return ff.features[name]
}

// Set turns a feature on or off.
func (ff *FeatureFlags) Set(name string, enabled bool) {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	ff.features[name] = enabled
}

// Enabled returns the sorted names of enabled features.
func (ff *FeatureFlags) Enabled() []string {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	names := make([]string, 0, len(ff.features))
	for name, on := range ff.features {
		if on {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
