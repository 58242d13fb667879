package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DEAL_SCOUT_CONFIG", "")
	t.Setenv("MIN_DISCOUNT", "")
	t.Setenv("SITE_DELAY_MS", "")
	t.Setenv("TARGET_SITES", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.MinDiscount)
	assert.Equal(t, 2*time.Second, cfg.SiteDelay)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Empty(t, cfg.TargetSites)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DEAL_SCOUT_CONFIG", "")
	t.Setenv("TARGET_SITES", "amazon, ebay ,,")
	t.Setenv("PROXY_URLS", "http://p1:8080,http://p2:8080")
	t.Setenv("MIN_CONFIDENCE", "72.5")
	t.Setenv("HEADLESS", "false")
	t.Setenv("AI_PAUSE_MS", "250")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"amazon", "ebay"}, cfg.TargetSites)
	assert.Equal(t, []string{"http://p1:8080", "http://p2:8080"}, cfg.ProxyURLs)
	assert.Equal(t, 72.5, cfg.MinConfidence)
	assert.False(t, cfg.Headless)
	assert.Equal(t, 250*time.Millisecond, cfg.AIPause)
}

func TestApplyFileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scout.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
query = "4k monitor"
sites = ["newegg"]

[thresholds]
min_discount = 30
max_results = 5

[ai]
openai_model = "gpt-4o"
`), 0o644))

	cfg := &Config{MinDiscount: 50, MinConfidence: 60, MaxResults: 50, OpenAIModel: "x"}
	require.NoError(t, cfg.ApplyFile(path))

	assert.Equal(t, "4k monitor", cfg.SearchQuery)
	assert.Equal(t, []string{"newegg"}, cfg.TargetSites)
	assert.Equal(t, 30, cfg.MinDiscount)
	assert.Equal(t, 60.0, cfg.MinConfidence, "absent keys keep their value")
	assert.Equal(t, 5, cfg.MaxResults)
	assert.Equal(t, "gpt-4o", cfg.OpenAIModel)
}

func TestApplyFileRejectsBadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("sites = [unterminated"), 0o644))

	cfg := &Config{}
	assert.Error(t, cfg.ApplyFile(path))
}

func TestHasAIProvider(t *testing.T) {
	assert.False(t, (&Config{}).HasAIProvider())
	assert.True(t, (&Config{AnthropicKey: "k"}).HasAIProvider())
	assert.True(t, (&Config{OpenAIKey: "k"}).HasAIProvider())
	assert.True(t, (&Config{GeminiKey: "k"}).HasAIProvider())
}
