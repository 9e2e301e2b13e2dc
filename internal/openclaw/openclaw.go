// Package openclaw reads the gateway's own openclaw.json and summarizes the
// configured AI providers for display.
package openclaw

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
)

type Config struct {
	Agents  Agents  `json:"agents"`
	Models  Models  `json:"models"`
	Gateway Gateway `json:"gateway"`
}

type Agents struct {
	Defaults AgentDefaults `json:"defaults"`
}

type AgentDefaults struct {
	Model struct {
		Primary string `json:"primary,omitempty"`
	} `json:"model"`
	// provider/model -> per-model options
	Models map[string]json.RawMessage `json:"models,omitempty"`
}

type Models struct {
	Providers map[string]Provider `json:"providers"`
}

type Provider struct {
	BaseURL string  `json:"baseUrl"`
	APIKey  string  `json:"apiKey,omitempty"`
	Models  []Model `json:"models"`
}

type Model struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	API           string `json:"api,omitempty"`
	ContextWindow uint32 `json:"contextWindow,omitempty"`
	MaxTokens     uint32 `json:"maxTokens,omitempty"`
}

type Gateway struct {
	Mode string `json:"mode,omitempty"`
	Auth *struct {
		Mode  string `json:"mode,omitempty"`
		Token string `json:"token,omitempty"`
	} `json:"auth,omitempty"`
}

// Load parses path. A missing file yields an empty Config.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var c Config
	if len(strings.TrimSpace(string(b))) == 0 {
		return &c, nil
	}
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &c, nil
}

type Overview struct {
	PrimaryModel        string               `json:"primary_model,omitempty"`
	GatewayMode         string               `json:"gateway_mode,omitempty"`
	ConfiguredProviders []ConfiguredProvider `json:"configured_providers"`
	AvailableModels     []string             `json:"available_models"`
}

type ConfiguredProvider struct {
	Name         string            `json:"name"`
	BaseURL      string            `json:"base_url"`
	APIKeyMasked string            `json:"api_key_masked,omitempty"`
	HasAPIKey    bool              `json:"has_api_key"`
	Models       []ConfiguredModel `json:"models"`
}

type ConfiguredModel struct {
	FullID        string `json:"full_id"`
	ID            string `json:"id"`
	Name          string `json:"name"`
	APIType       string `json:"api_type,omitempty"`
	ContextWindow uint32 `json:"context_window,omitempty"`
	MaxTokens     uint32 `json:"max_tokens,omitempty"`
	IsPrimary     bool   `json:"is_primary"`
}

// Overview never exposes a full API key. Providers are sorted by name and
// available models are the union of the agent model list and every
// provider/model pair.
func (c *Config) Overview() Overview {
	primary := c.Agents.Defaults.Model.Primary
	ov := Overview{
		PrimaryModel:        primary,
		GatewayMode:         c.Gateway.Mode,
		ConfiguredProviders: []ConfiguredProvider{},
		AvailableModels:     []string{},
	}
	seen := map[string]bool{}
	addModel := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			ov.AvailableModels = append(ov.AvailableModels, id)
		}
	}

	names := make([]string, 0, len(c.Models.Providers))
	for name := range c.Models.Providers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		p := c.Models.Providers[name]
		cp := ConfiguredProvider{
			Name:      name,
			BaseURL:   p.BaseURL,
			HasAPIKey: p.APIKey != "",
			Models:    make([]ConfiguredModel, 0, len(p.Models)),
		}
		if cp.HasAPIKey {
			cp.APIKeyMasked = MaskKey(p.APIKey)
		}
		for _, m := range p.Models {
			full := name + "/" + m.ID
			cp.Models = append(cp.Models, ConfiguredModel{
				FullID:        full,
				ID:            m.ID,
				Name:          m.Name,
				APIType:       m.API,
				ContextWindow: m.ContextWindow,
				MaxTokens:     m.MaxTokens,
				IsPrimary:     full == primary,
			})
			addModel(full)
		}
		ov.ConfiguredProviders = append(ov.ConfiguredProviders, cp)
	}
	for id := range c.Agents.Defaults.Models {
		addModel(id)
	}
	sort.Strings(ov.AvailableModels)
	return ov
}

// MaskKey keeps the first and last four characters of keys longer than
// eight characters.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
