package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jward/deadscan"
)

// envPrefix namespaces environment overrides, e.g. DEADSCAN_MAX_REFS.
const envPrefix = "DEADSCAN"

// config is the validated command configuration.
type config struct {
	deadscan.Thresholds

	Verbose     bool
	Summary     bool
	ShowRefs    bool
	AllLowUsage bool
	Progress    bool
	Pattern     string
	ExcludeDirs []string
	Parser      string
	Jobs        int
	Rules       string
}

// loadConfig resolves every flag with the following priority (highest to
// lowest):
// 1. Flags set on the command line
// 2. Environment variables (DEADSCAN_*)
// 3. Flag defaults
func loadConfig(cmd *cobra.Command) (*config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("binding flags: %w", err)
	}

	cfg := &config{
		Thresholds: deadscan.Thresholds{
			MaxRefs:         v.GetInt("max-refs"),
			IncludeExported: v.GetBool("include-exported"),
			IncludeTests:    v.GetBool("include-tests"),
		},
		Verbose:     v.GetBool("verbose"),
		Summary:     v.GetBool("summary"),
		ShowRefs:    v.GetBool("show-refs"),
		AllLowUsage: v.GetBool("all-low-usage"),
		Progress:    v.GetBool("progress"),
		Pattern:     v.GetString("pattern"),
		ExcludeDirs: splitList(v.GetStringSlice("exclude-dir")),
		Parser:      v.GetString("parser"),
		Jobs:        v.GetInt("jobs"),
		Rules:       v.GetString("rules"),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// splitList flattens comma-separated entries and drops empty ones. Flag
// values arrive already split on commas; an environment value arrives as one
// string that viper only splits on whitespace.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func (c *config) validate() error {
	if err := c.Thresholds.Validate(); err != nil {
		return err
	}
	if c.Jobs < 0 {
		return fmt.Errorf("%w: jobs must be >= 0, got %d", deadscan.ErrInvalidConfig, c.Jobs)
	}
	if _, _, err := deadscan.BackendByName(c.Parser); err != nil {
		return err
	}
	return nil
}
