package config

import "testing"

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()

	tests := []struct {
		name    string
		feature Feature
		want    bool
	}{
		{"inline-c", FeatInlineC, true},
		{"nil-coalesce", FeatNilCoalesce, true},
		{"or-coalesce", FeatOrCoalesce, false},
	}
	for _, tt := range tests {
		if got := cfg.IsFeatureEnabled(tt.feature); got != tt.want {
			t.Errorf("IsFeatureEnabled(%s) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestSetFeatureOverridesDefault(t *testing.T) {
	cfg := NewConfig()
	cfg.SetFeature(FeatOrCoalesce, true)
	if !cfg.IsFeatureEnabled(FeatOrCoalesce) {
		t.Error("SetFeature(FeatOrCoalesce, true) did not take effect")
	}
}

func TestFeatureMapResolvesFlagNames(t *testing.T) {
	cfg := NewConfig()
	ft, ok := cfg.FeatureMap["nil-coalesce"]
	if !ok {
		t.Fatal("FeatureMap missing \"nil-coalesce\"")
	}
	if ft != FeatNilCoalesce {
		t.Errorf("FeatureMap[\"nil-coalesce\"] = %v, want FeatNilCoalesce", ft)
	}
}

func TestWarningDefaults(t *testing.T) {
	cfg := NewConfig()
	if !cfg.IsWarningEnabled(WarnOverflow) {
		t.Error("WarnOverflow should be enabled by default")
	}
	if cfg.IsWarningEnabled(WarnShadowing) {
		t.Error("WarnShadowing should be disabled by default")
	}
}
