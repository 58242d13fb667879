package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Config holds all application configuration loaded from environment
// variables and an optional TOML overlay.
type Config struct {
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	CSVOutputPath string
	ChromeBin     string
	Headless      bool

	SearchQuery string
	TargetSites []string

	ProxyURLs     []string
	ProxyCheckURL string

	OpenAIKey      string
	OpenAIModel    string
	OpenAIBaseURL  string
	AnthropicKey   string
	AnthropicModel string
	GeminiKey      string
	GeminiModel    string

	MinDiscount   int
	MinConfidence float64
	MaxResults    int

	MaxRetries      int
	RetryBaseDelay  time.Duration
	SiteDelay       time.Duration
	PageTimeout     time.Duration
	SelectorTimeout time.Duration
	AIPauseEvery    int
	AIPause         time.Duration
}

// fileConfig is the TOML overlay. Only keys present in the file override.
type fileConfig struct {
	Query   *string  `toml:"query"`
	Sites   []string `toml:"sites"`
	Proxies []string `toml:"proxies"`

	Thresholds struct {
		MinDiscount   *int     `toml:"min_discount"`
		MinConfidence *float64 `toml:"min_confidence"`
		MaxResults    *int     `toml:"max_results"`
	} `toml:"thresholds"`

	AI struct {
		OpenAIModel    *string `toml:"openai_model"`
		AnthropicModel *string `toml:"anthropic_model"`
		GeminiModel    *string `toml:"gemini_model"`
	} `toml:"ai"`
}

// Load reads the .env file and returns a populated Config struct. When
// DEAL_SCOUT_CONFIG names a TOML file its values overlay the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	cfg := &Config{
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "scout"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "scout123"),
		PostgresDB:       getEnv("POSTGRES_DB", "deals_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		CSVOutputPath: getEnv("CSV_OUTPUT_PATH", "./output/raw_extractions.csv"),
		ChromeBin:     getEnv("CHROME_BIN", ""),
		Headless:      getEnvBool("HEADLESS", true),

		SearchQuery: getEnv("SEARCH_QUERY", "electronics deals"),
		TargetSites: getEnvList("TARGET_SITES"),

		ProxyURLs:     getEnvList("PROXY_URLS"),
		ProxyCheckURL: getEnv("PROXY_CHECK_URL", "https://httpbin.org/ip"),

		OpenAIKey:      getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:    getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:  getEnv("OPENAI_BASE_URL", ""),
		AnthropicKey:   getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicModel: getEnv("ANTHROPIC_MODEL", "claude-3-5-haiku-latest"),
		GeminiKey:      getEnv("GEMINI_API_KEY", ""),
		GeminiModel:    getEnv("GEMINI_MODEL", "gemini-1.5-flash"),

		MinDiscount:   getEnvInt("MIN_DISCOUNT", 50),
		MinConfidence: getEnvFloat("MIN_CONFIDENCE", 60),
		MaxResults:    getEnvInt("MAX_RESULTS", 50),

		MaxRetries:      getEnvInt("MAX_RETRIES", 3),
		RetryBaseDelay:  getEnvMillis("RETRY_BASE_DELAY_MS", 1000),
		SiteDelay:       getEnvMillis("SITE_DELAY_MS", 2000),
		PageTimeout:     time.Duration(getEnvInt("PAGE_TIMEOUT_SEC", 30)) * time.Second,
		SelectorTimeout: time.Duration(getEnvInt("SELECTOR_TIMEOUT_SEC", 15)) * time.Second,
		AIPauseEvery:    getEnvInt("AI_PAUSE_EVERY", 10),
		AIPause:         getEnvMillis("AI_PAUSE_MS", 1000),
	}

	if path := os.Getenv("DEAL_SCOUT_CONFIG"); path != "" {
		if err := cfg.ApplyFile(path); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// ApplyFile overlays values from a TOML file onto c.
func (c *Config) ApplyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %q: %w", path, err)
	}
	return c.applyTOML(data)
}

func (c *Config) applyTOML(data []byte) error {
	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("config: parse TOML: %w", err)
	}

	if fc.Query != nil {
		c.SearchQuery = *fc.Query
	}
	if len(fc.Sites) > 0 {
		c.TargetSites = fc.Sites
	}
	if len(fc.Proxies) > 0 {
		c.ProxyURLs = fc.Proxies
	}
	if v := fc.Thresholds.MinDiscount; v != nil {
		c.MinDiscount = *v
	}
	if v := fc.Thresholds.MinConfidence; v != nil {
		c.MinConfidence = *v
	}
	if v := fc.Thresholds.MaxResults; v != nil {
		c.MaxResults = *v
	}
	if v := fc.AI.OpenAIModel; v != nil {
		c.OpenAIModel = *v
	}
	if v := fc.AI.AnthropicModel; v != nil {
		c.AnthropicModel = *v
	}
	if v := fc.AI.GeminiModel; v != nil {
		c.GeminiModel = *v
	}
	return nil
}

// HasAIProvider reports whether at least one AI provider is configured.
func (c *Config) HasAIProvider() bool {
	return c.OpenAIKey != "" || c.AnthropicKey != "" || c.GeminiKey != ""
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}

func getEnvMillis(key string, fallback int) time.Duration {
	return time.Duration(getEnvInt(key, fallback)) * time.Millisecond
}

// getEnvList splits a comma-separated variable, dropping blanks.
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
