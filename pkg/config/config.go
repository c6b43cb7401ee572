// Package config holds the compiler's feature and warning toggles.
package config

// Feature gates an optional piece of compiler surface.
type Feature int

const (
	// FeatInlineC allows `inline C[[ ... ]]` blocks to pass through verbatim.
	FeatInlineC Feature = iota
	// FeatNilCoalesce allows the `??` operator, the preferred way to
	// supply a default for a nil optional.
	FeatNilCoalesce
	// FeatOrCoalesce names the deprecated `opt or default` nil-coalesce
	// overload of `or`. Disabled by default.
	FeatOrCoalesce
	FeatCount
)

// Warning gates an optional diagnostic.
type Warning int

const (
	WarnOverflow Warning = iota
	WarnUnreachable
	WarnShadowing
	WarnCount
)

// Info describes a single feature or warning's name and default state.
type Info struct {
	Name        string
	Enabled     bool
	Description string
}

// Config is the set of compile-time toggles handed to the type checker
// and code generator. Neither of them reads a toggle: inline C blocks,
// `??` and `opt or default` are always accepted and lowered, and an
// oversized integer literal is always reported as a lexer error,
// whatever the settings here.
type Config struct {
	Features   map[Feature]Info
	Warnings   map[Warning]Info
	FeatureMap map[string]Feature
	WarningMap map[string]Warning
}

// NewConfig returns a Config with HolyLua's default feature/warning set.
func NewConfig() *Config {
	cfg := &Config{
		Features:   make(map[Feature]Info),
		Warnings:   make(map[Warning]Info),
		FeatureMap: make(map[string]Feature),
		WarningMap: make(map[string]Warning),
	}

	features := map[Feature]Info{
		FeatInlineC:     {"inline-c", true, "Allow `inline C[[ ... ]]` passthrough blocks."},
		FeatNilCoalesce: {"nil-coalesce", true, "Recognize the `??` nil-coalesce operator."},
		FeatOrCoalesce:  {"or-coalesce", false, "Recognize the deprecated `opt or default` nil-coalesce overload."},
	}
	warnings := map[Warning]Info{
		WarnOverflow:    {"overflow", true, "Warn when an integer literal saturates."},
		WarnUnreachable: {"unreachable", true, "Warn about code that can never execute."},
		WarnShadowing:   {"shadowing", false, "Warn when a local declaration shadows an outer binding."},
	}

	cfg.Features, cfg.Warnings = features, warnings
	for ft, info := range features {
		cfg.FeatureMap[info.Name] = ft
	}
	for wt, info := range warnings {
		cfg.WarningMap[info.Name] = wt
	}
	return cfg
}

func (c *Config) SetFeature(ft Feature, enabled bool) {
	if info, ok := c.Features[ft]; ok {
		info.Enabled = enabled
		c.Features[ft] = info
	}
}

func (c *Config) IsFeatureEnabled(ft Feature) bool { return c.Features[ft].Enabled }

func (c *Config) SetWarning(wt Warning, enabled bool) {
	if info, ok := c.Warnings[wt]; ok {
		info.Enabled = enabled
		c.Warnings[wt] = info
	}
}

func (c *Config) IsWarningEnabled(wt Warning) bool { return c.Warnings[wt].Enabled }
