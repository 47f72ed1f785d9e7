package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrMissingAPIKey 表示未設定推論 API 憑證
var ErrMissingAPIKey = errors.New("llm api key is not configured (set HF_API_KEY)")

type Config struct {
	Env         string
	Server      ServerConfig
	DB          DBConfig
	LLM         LLMConfig
	Translation TranslationConfig
	Session     SessionConfig
	Ingest      IngestConfig
	Log         LogConfig
}

type ServerConfig struct {
	Address        string
	AllowedOrigins []string `mapstructure:"allowed_origins"` // CORS 允許的來源，"*" 表示全部
}

// DBConfig 資料庫設定，Driver 為 sqlite 或 postgres
type DBConfig struct {
	Driver   string
	Path     string
	Host     string
	User     string
	Password string
	Name     string
	Port     int
}

// LLMConfig 外部推論服務設定
type LLMConfig struct {
	APIKey           string `mapstructure:"api_key"`
	BaseURL          string `mapstructure:"base_url"`
	Model            string
	Timeout          time.Duration
	MaxTokens        int `mapstructure:"max_tokens"`
	Temperature      float64
	RateLimitBackoff time.Duration `mapstructure:"rate_limit_backoff"`
}

type TranslationConfig struct {
	Enabled bool
}

// SessionConfig 房間會話設定
type SessionConfig struct {
	Secret          string
	TTL             time.Duration
	DefaultLanguage string `mapstructure:"default_language"`
}

type IngestConfig struct {
	MaxTextLength int   `mapstructure:"max_text_length"`
	MaxAudioBytes int64 `mapstructure:"max_audio_bytes"`
}

type LogConfig struct {
	Level string
}

// IsDevelopment 判斷是否為開發環境
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load 載入應用程式配置
// 順序：.env 檔 → config.yaml（可選）→ 環境變數覆蓋
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./pkg/config")
	v.AddConfigPath(".")

	setDefaults(v)

	v.SetEnvPrefix("MEDBRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// 憑證沿用 Hugging Face 的慣用變數名稱
	if err := v.BindEnv("llm.api_key", "MEDBRIDGE_LLM_API_KEY", "HF_API_KEY"); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 檢查啟動時必要的設定
func (c *Config) Validate() error {
	if strings.TrimSpace(c.LLM.APIKey) == "" {
		return ErrMissingAPIKey
	}
	switch c.DB.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported db driver %q", c.DB.Driver)
	}
	if c.LLM.Timeout <= 0 {
		return errors.New("llm.timeout must be positive")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.path", "./data/medical_chat.db")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.name", "med_bridge")
	v.SetDefault("db.port", 5432)

	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "https://api-inference.huggingface.co")
	v.SetDefault("llm.model", "Qwen/Qwen2.5-7B-Instruct")
	v.SetDefault("llm.timeout", 20*time.Second)
	v.SetDefault("llm.max_tokens", 500)
	v.SetDefault("llm.temperature", 0.3)
	v.SetDefault("llm.rate_limit_backoff", 2*time.Second)

	v.SetDefault("translation.enabled", true)

	v.SetDefault("session.secret", "")
	v.SetDefault("session.ttl", 12*time.Hour)
	v.SetDefault("session.default_language", "English")

	v.SetDefault("ingest.max_text_length", 4000)
	v.SetDefault("ingest.max_audio_bytes", 10<<20)

	v.SetDefault("log.level", "info")
}
