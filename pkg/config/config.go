package config

import (
	"log"
	"sync"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	App struct {
		Env           string `env:"APP_ENV" env-default:"development"`
		Port          int    `env:"APP_PORT" env-default:"8080"`
		SentryUrl     string `env:"SENTRY_URL"`
		ServiceAPIKey string `env:"SERVICE_API_KEY"`
	}
	Provider struct {
		APIKey          string        `env:"PROVIDER_RAPIDAPI_KEY"`
		Host            string        `env:"PROVIDER_RAPIDAPI_HOST" env-default:"tiktok-scraper.p.rapidapi.com"`
		BaseURL         string        `env:"PROVIDER_BASE_URL" env-default:"https://tiktok-scraper.p.rapidapi.com"`
		RequestTimeout  time.Duration `env:"PROVIDER_REQUEST_TIMEOUT" env-default:"30s"`
		RequestDelay    time.Duration `env:"PROVIDER_REQUEST_DELAY" env-default:"1s"`
		MaxPageAttempts int           `env:"PROVIDER_MAX_PAGE_ATTEMPTS" env-default:"10"`
	}
	Analysis struct {
		GeminiAPIKey      string        `env:"GEMINI_API_KEY"`
		DefaultModel      string        `env:"ANALYSIS_DEFAULT_MODEL" env-default:"gemini-2.0-flash"`
		MaxConcurrent     int           `env:"ANALYSIS_MAX_CONCURRENT" env-default:"3"`
		RequestTimeout    time.Duration `env:"ANALYSIS_REQUEST_TIMEOUT" env-default:"120s"`
		MaxQuoteLength    int           `env:"ANALYSIS_MAX_QUOTE_LENGTH" env-default:"200"`
		MatchThreshold    float64       `env:"ANALYSIS_MATCH_THRESHOLD" env-default:"0.3"`
		MaxPromptComments int           `env:"ANALYSIS_MAX_PROMPT_COMMENTS" env-default:"50"`
		TopThemes         int           `env:"ANALYSIS_TOP_THEMES" env-default:"10"`
	}
	Limits struct {
		MaxItems               int `env:"MAX_ITEMS_PER_REQUEST" env-default:"50"`
		DefaultItems           int `env:"DEFAULT_ITEMS_PER_REQUEST" env-default:"20"`
		MaxCommentsPerItem     int `env:"MAX_COMMENTS_PER_ITEM" env-default:"200"`
		DefaultCommentsPerItem int `env:"DEFAULT_COMMENTS_PER_ITEM" env-default:"50"`
	}
}

var (
	once sync.Once
	cfg  *Config
)

func New() (*Config, error) {
	once.Do(func() {
		cfg = &Config{}
		if err := cleanenv.ReadEnv(cfg); err != nil {
			help, _ := cleanenv.GetDescription(cfg, nil)
			log.Fatalf("Failed to read configuration: %v\n%v", err, help)
		}
	})
	return cfg, nil
}
