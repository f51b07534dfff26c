package llm

import (
	"strings"
	"time"

	"github.com/samber/lo"
)

const (
	DefaultAPIURL  = "https://dashscope.aliyuncs.com/compatible-mode/v1/chat/completions"
	DefaultModel   = "qwen3-vl-32b-thinking"
	DefaultTimeout = 45 * time.Second
)

// Config is the injected upstream configuration. Nothing in this package
// reads the environment.
type Config struct {
	APIKey  string        `json:"api_key"`
	APIURL  string        `json:"api_url"`
	Model   string        `json:"model"`
	Timeout time.Duration `json:"-"`
}

// Merge combines server configuration c with a per-request override. The
// server's key and URL take precedence, the request's model does. Remaining
// blanks get the package defaults.
func (c Config) Merge(override Config) Config {
	return Config{
		APIKey:  lo.CoalesceOrEmpty(strings.TrimSpace(c.APIKey), strings.TrimSpace(override.APIKey)),
		APIURL:  lo.CoalesceOrEmpty(strings.TrimSpace(c.APIURL), strings.TrimSpace(override.APIURL), DefaultAPIURL),
		Model:   lo.CoalesceOrEmpty(strings.TrimSpace(override.Model), strings.TrimSpace(c.Model), DefaultModel),
		Timeout: lo.CoalesceOrEmpty(c.Timeout, override.Timeout, DefaultTimeout),
	}
}

// baseURL reduces a full chat-completions endpoint to the base the SDK
// appends its own path to.
func baseURL(apiURL string) string {
	u := strings.TrimRight(strings.TrimSpace(apiURL), "/")
	u = strings.TrimSuffix(u, "/chat/completions")
	return u + "/"
}
