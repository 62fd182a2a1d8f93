package config

import (
	"log"
	"os"
	"time"

	"github.com/subosito/gotenv"
	"gopkg.in/yaml.v3"
)

const (
	configPathEnv     = "DISCLOSURE_SCANNER_CONFIG"
	dotEnvFile        = ".env"
	sentimentKeyEnv   = "SENTIMENT_API_KEY"
	geminiKeyEnv      = "GEMINI_API_KEY"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
	logLevelEnv       = "LOG_LEVEL"
)

// Sentiment backends understood by the application wiring.
const (
	BackendInference = "inference"
	BackendChat      = "chat"
	BackendGemini    = "gemini"
	BackendVader     = "vader"
)

// Hosted multilingual NLI model used for zero-shot sentiment; it covers Japanese.
const (
	DefaultInferenceModel    = "MoritzLaurer/mDeBERTa-v3-base-mnli-xnli"
	DefaultInferenceEndpoint = "https://router.huggingface.co/hf-inference/models/" + DefaultInferenceModel
)

// Config holds high-level settings required across the application.
type Config struct {
	Source        SourceConfig       `yaml:"source"`
	Cache         CacheConfig        `yaml:"cache"`
	Output        OutputConfig       `yaml:"output"`
	Extract       ExtractConfig      `yaml:"extract"`
	Batch         BatchConfig        `yaml:"batch"`
	Sentiment     SentimentConfig    `yaml:"sentiment"`
	Rules         RulesConfig        `yaml:"rules"`
	Storage       StorageConfig      `yaml:"storage"`
	Notifications NotificationConfig `yaml:"notifications"`
	Logging       LoggingConfig      `yaml:"logging"`
}

// SourceConfig describes the disclosure listing.
type SourceConfig struct {
	ListingURL    string        `yaml:"listingUrl"`
	BaseURL       string        `yaml:"baseUrl"`
	TableSelector string        `yaml:"tableSelector"`
	UserAgent     string        `yaml:"userAgent"`
	Timeout       time.Duration `yaml:"timeout"`
}

// CacheConfig locates downloaded documents.
type CacheConfig struct {
	Dir            string        `yaml:"dir"`
	FetchDelay     time.Duration `yaml:"fetchDelay"`
	StrictKey      bool          `yaml:"strictKey"`
	TitlePrefixLen int           `yaml:"titlePrefixLen"`
}

// OutputConfig locates the result table.
type OutputConfig struct {
	CSVPath string `yaml:"csvPath"`
}

// ExtractConfig locates the poppler text extractor.
type ExtractConfig struct {
	Binary string `yaml:"binary"`
}

// BatchConfig bounds one run.
type BatchConfig struct {
	MaxEntries int `yaml:"maxEntries"`
}

// SentimentConfig selects and parametrises the zero-shot backend.
type SentimentConfig struct {
	Backend      string        `yaml:"backend"`
	Endpoint     string        `yaml:"endpoint"`
	Model        string        `yaml:"model"`
	APIKey       string        `yaml:"apiKey"`
	SystemPrompt string        `yaml:"systemPrompt"`
	Timeout      time.Duration `yaml:"timeout"`
	PrefixLength int           `yaml:"prefixLength"`
	Labels       []string      `yaml:"labels"`
}

// RulesConfig overrides the genre keyword table and base scores.
type RulesConfig struct {
	Genres       []GenreConfig `yaml:"genres"`
	DefaultGenre string        `yaml:"defaultGenre"`
}

// GenreConfig is one row of the ordered keyword table.
type GenreConfig struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
	Score    int      `yaml:"score"`
}

// StorageConfig describes the optional SQLite mirror of the result table.
type StorageConfig struct {
	SQLite SQLiteConfig `yaml:"sqlite"`
}

// SQLiteConfig toggles the mirror.
type SQLiteConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	MinScore int            `yaml:"minScore"`
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// LoggingConfig selects level and handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads .env and YAML configuration (if present) and applies environment overrides.
// An empty path falls back to $DISCLOSURE_SCANNER_CONFIG.
func Load(path string) Config {
	if err := gotenv.Load(dotEnvFile); err != nil && !os.IsNotExist(err) {
		log.Printf("config: cannot load %s: %v", dotEnvFile, err)
	}
	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	return LoadFile(path)
}

// LoadFile is Load without the .env step; an empty path uses defaults only.
func LoadFile(path string) Config {
	cfg := Default()

	if path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(sentimentKeyEnv); v != "" {
		c.Sentiment.APIKey = v
	}

	if v := os.Getenv(geminiKeyEnv); v != "" && c.Sentiment.Backend == BackendGemini {
		c.Sentiment.APIKey = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Source.ListingURL != "" {
		base.Source.ListingURL = override.Source.ListingURL
	}
	if override.Source.BaseURL != "" {
		base.Source.BaseURL = override.Source.BaseURL
	}
	if override.Source.TableSelector != "" {
		base.Source.TableSelector = override.Source.TableSelector
	}
	if override.Source.UserAgent != "" {
		base.Source.UserAgent = override.Source.UserAgent
	}
	if override.Source.Timeout != 0 {
		base.Source.Timeout = override.Source.Timeout
	}

	if override.Cache.Dir != "" {
		base.Cache.Dir = override.Cache.Dir
	}
	if override.Cache.FetchDelay != 0 {
		base.Cache.FetchDelay = override.Cache.FetchDelay
	}
	if override.Cache.TitlePrefixLen > 0 {
		base.Cache.TitlePrefixLen = override.Cache.TitlePrefixLen
	}
	base.Cache.StrictKey = base.Cache.StrictKey || override.Cache.StrictKey

	if override.Output.CSVPath != "" {
		base.Output.CSVPath = override.Output.CSVPath
	}

	if override.Extract.Binary != "" {
		base.Extract.Binary = override.Extract.Binary
	}

	if override.Batch.MaxEntries > 0 {
		base.Batch.MaxEntries = override.Batch.MaxEntries
	}

	if override.Sentiment.Backend != "" {
		base.Sentiment.Backend = override.Sentiment.Backend
	}
	if override.Sentiment.Endpoint != "" {
		base.Sentiment.Endpoint = override.Sentiment.Endpoint
	}
	if override.Sentiment.Model != "" {
		base.Sentiment.Model = override.Sentiment.Model
	}
	if override.Sentiment.APIKey != "" {
		base.Sentiment.APIKey = override.Sentiment.APIKey
	}
	if override.Sentiment.SystemPrompt != "" {
		base.Sentiment.SystemPrompt = override.Sentiment.SystemPrompt
	}
	if override.Sentiment.Timeout != 0 {
		base.Sentiment.Timeout = override.Sentiment.Timeout
	}
	if override.Sentiment.PrefixLength > 0 {
		base.Sentiment.PrefixLength = override.Sentiment.PrefixLength
	}
	if len(override.Sentiment.Labels) > 0 {
		base.Sentiment.Labels = override.Sentiment.Labels
	}

	if len(override.Rules.Genres) > 0 {
		base.Rules.Genres = override.Rules.Genres
	}
	if override.Rules.DefaultGenre != "" {
		base.Rules.DefaultGenre = override.Rules.DefaultGenre
	}

	if override.Storage.SQLite.Enabled {
		base.Storage.SQLite.Enabled = true
	}
	if override.Storage.SQLite.Path != "" {
		base.Storage.SQLite.Path = override.Storage.SQLite.Path
	}

	if override.Notifications.MinScore > 0 {
		base.Notifications.MinScore = override.Notifications.MinScore
	}
	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	return base
}

// Default returns the built-in configuration, matching the TDnet listing.
func Default() Config {
	return Config{
		Source: SourceConfig{
			ListingURL:    "https://www.release.tdnet.info/inbs/I_main_00.html",
			BaseURL:       "https://www.release.tdnet.info/inbs/",
			TableSelector: "table.tdnet_news_table",
			UserAgent:     "DisclosureScanner/1.0",
			Timeout:       30 * time.Second,
		},
		Cache: CacheConfig{
			Dir:            "data/pdfs",
			FetchDelay:     500 * time.Millisecond,
			TitlePrefixLen: 30,
		},
		Output:  OutputConfig{CSVPath: "data/tdnet_score_all.csv"},
		Extract: ExtractConfig{Binary: "pdftotext"},
		Batch:   BatchConfig{MaxEntries: 30},
		Sentiment: SentimentConfig{
			Backend:      BackendInference,
			Endpoint:     DefaultInferenceEndpoint,
			Model:        DefaultInferenceModel,
			PrefixLength: 512,
		},
		Rules: RulesConfig{
			Genres: []GenreConfig{
				{Name: "TOB", Keywords: []string{"公開買付", "TOB"}, Score: 8},
				{Name: "自社株買い", Keywords: []string{"自己株式取得", "自己株"}, Score: 6},
				{Name: "増配", Keywords: []string{"増配", "配当予想"}, Score: 0},
				{Name: "上方修正", Keywords: []string{"上方修正", "業績予想の修正"}, Score: 5},
				{Name: "業務提携", Keywords: []string{"業務提携", "提携", "協業"}, Score: 4},
			},
			DefaultGenre: "その他",
		},
		Storage: StorageConfig{
			SQLite: SQLiteConfig{Path: "data/tdnet_score_all.db"},
		},
		Notifications: NotificationConfig{MinScore: 8},
		Logging:       LoggingConfig{Level: "info", Format: "tint"},
	}
}
