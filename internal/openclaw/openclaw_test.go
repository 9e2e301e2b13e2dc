package openclaw

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `{
  "agents": {
    "defaults": {
      "model": {"primary": "anthropic/claude-sonnet"},
      "models": {"anthropic/claude-sonnet": {}, "local/llama": {"alias": "l"}},
      "maxConcurrent": 4
    }
  },
  "models": {
    "providers": {
      "openai": {"baseUrl": "https://api.openai.com/v1", "models": [{"id": "gpt-4o", "name": "GPT-4o"}]},
      "anthropic": {
        "baseUrl": "https://api.anthropic.com",
        "apiKey": "sk-ant-0123456789abcd",
        "models": [{"id": "claude-sonnet", "name": "Sonnet", "api": "anthropic-messages", "contextWindow": 200000, "maxTokens": 8192}]
      }
    }
  },
  "gateway": {"mode": "local", "auth": {"mode": "token", "token": "t"}},
  "channels": {"telegram": {"enabled": true}}
}`

func TestLoadMissing(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "openclaw.json"))
	require.NoError(t, err)
	ov := c.Overview()
	assert.Empty(t, ov.PrimaryModel)
	assert.NotNil(t, ov.ConfiguredProviders)
	assert.Empty(t, ov.AvailableModels)
}

func TestLoadInvalid(t *testing.T) {
	p := filepath.Join(t.TempDir(), "openclaw.json")
	require.NoError(t, os.WriteFile(p, []byte("{not json"), 0o600))
	_, err := Load(p)
	assert.Error(t, err)
}

func TestOverview(t *testing.T) {
	p := filepath.Join(t.TempDir(), "openclaw.json")
	require.NoError(t, os.WriteFile(p, []byte(sample), 0o600))
	c, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "token", c.Gateway.Auth.Mode)

	ov := c.Overview()
	assert.Equal(t, "anthropic/claude-sonnet", ov.PrimaryModel)
	assert.Equal(t, "local", ov.GatewayMode)
	require.Len(t, ov.ConfiguredProviders, 2)

	a := ov.ConfiguredProviders[0]
	assert.Equal(t, "anthropic", a.Name)
	assert.True(t, a.HasAPIKey)
	assert.Equal(t, "sk-a...abcd", a.APIKeyMasked)
	require.Len(t, a.Models, 1)
	assert.Equal(t, ConfiguredModel{
		FullID: "anthropic/claude-sonnet", ID: "claude-sonnet", Name: "Sonnet",
		APIType: "anthropic-messages", ContextWindow: 200000, MaxTokens: 8192, IsPrimary: true,
	}, a.Models[0])

	o := ov.ConfiguredProviders[1]
	assert.False(t, o.HasAPIKey)
	assert.Empty(t, o.APIKeyMasked)
	assert.False(t, o.Models[0].IsPrimary)

	assert.Equal(t, []string{"anthropic/claude-sonnet", "local/llama", "openai/gpt-4o"}, ov.AvailableModels)
}

func TestMaskKey(t *testing.T) {
	assert.Equal(t, "****", MaskKey("short"))
	assert.Equal(t, "****", MaskKey("12345678"))
	assert.Equal(t, "1234...6789", MaskKey("123456789"))
}
