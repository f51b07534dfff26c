package llm

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var defaultPrompts []byte

// Prompts are the system prompts of the chat, plan and modify flows.
type Prompts struct {
	Chat   string `yaml:"chat"`
	Plan   string `yaml:"plan"`
	Modify string `yaml:"modify"`
}

// LoadPrompts reads the prompt catalog at path, or the embedded one when
// path is empty. Prompts missing from a custom file fall back to the
// embedded text.
func LoadPrompts(path string) (*Prompts, error) {
	var p Prompts
	if err := yaml.Unmarshal(defaultPrompts, &p); err != nil {
		return nil, fmt.Errorf("parse embedded prompts: %w", err)
	}
	if path == "" {
		return &p, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompts: %w", err)
	}
	var custom Prompts
	if err := yaml.Unmarshal(data, &custom); err != nil {
		return nil, fmt.Errorf("parse prompts %s: %w", path, err)
	}
	if custom.Chat != "" {
		p.Chat = custom.Chat
	}
	if custom.Plan != "" {
		p.Plan = custom.Plan
	}
	if custom.Modify != "" {
		p.Modify = custom.Modify
	}
	if p.Chat == "" || p.Plan == "" || p.Modify == "" {
		return nil, errors.New("prompt catalog is incomplete")
	}
	return &p, nil
}
