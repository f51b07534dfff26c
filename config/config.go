// Package config reads the service configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cast"

	"tripplanner/llm"
)

const defaultTimezone = "Asia/Shanghai"

// Config holds everything outside of PocketBase's own flags.
type Config struct {
	// LLM is the server side upstream configuration. Its key and URL win
	// over any per-request override.
	LLM llm.Config

	// PromptsPath optionally points at a YAML prompt catalog replacing the
	// embedded one.
	PromptsPath string

	// DefaultTimezone places timed itinerary items that carry no
	// coordinates.
	DefaultTimezone *time.Location

	// AllowActorHeader accepts X-Actor-Id as the acting user on
	// unauthenticated requests. Development only.
	AllowActorHeader bool
}

// Load reads configuration from environment variables and applies defaults.
func Load() (Config, error) {
	cfg := Config{
		LLM: llm.Config{
			APIKey: lo.CoalesceOrEmpty(getEnv("DASHSCOPE_API_KEY"), getEnv("TONGYI_API_KEY"), getEnv("OPENAI_API_KEY")),
			APIURL: lo.CoalesceOrEmpty(getEnv("DASHSCOPE_BASE_URL"), getEnv("TONGYI_API_URL")),
			Model:  lo.CoalesceOrEmpty(getEnv("LLM_MODEL"), llm.DefaultModel),
		},
		PromptsPath:      getEnv("PROMPTS_PATH"),
		AllowActorHeader: cast.ToBool(getEnv("ALLOW_ACTOR_HEADER")),
	}

	cfg.LLM.Timeout = llm.DefaultTimeout
	if v := getEnv("LLM_TIMEOUT"); v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid LLM_TIMEOUT: %w", err)
		}
		if d <= 0 {
			return cfg, fmt.Errorf("LLM_TIMEOUT must be positive")
		}
		cfg.LLM.Timeout = d
	}

	tz := lo.CoalesceOrEmpty(getEnv("DEFAULT_TIMEZONE"), defaultTimezone)
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return cfg, fmt.Errorf("invalid DEFAULT_TIMEZONE: %w", err)
	}
	cfg.DefaultTimezone = loc

	return cfg, nil
}

// parseDuration accepts Go durations ("30s") and bare seconds ("30").
func parseDuration(v string) (time.Duration, error) {
	if secs, err := cast.ToIntE(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return cast.ToDurationE(v)
}

func getEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
