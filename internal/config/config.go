package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env         string `mapstructure:"ENV"`
	Port        string `mapstructure:"PORT"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	AdminKey    string `mapstructure:"ADMIN_KEY"`
	CORSAllowed string `mapstructure:"CORS_ALLOWED_ORIGINS"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`

	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	NLPURL              string        `mapstructure:"NLP_URL"`
	NLPEnabled          bool          `mapstructure:"NLP_ENABLED"`
	NLPTimeout          time.Duration `mapstructure:"NLP_TIMEOUT"`
	NLPMaxRetries       int           `mapstructure:"NLP_MAX_RETRIES"`
	NLPRetryBaseDelay   time.Duration `mapstructure:"NLP_RETRY_BASE_DELAY"`
	NLPFailureThreshold int           `mapstructure:"NLP_CIRCUIT_FAILURE_THRESHOLD"`
	NLPCircuitOpenFor   time.Duration `mapstructure:"NLP_CIRCUIT_OPEN_DURATION"`

	EscalationInterval time.Duration `mapstructure:"ESCALATION_INTERVAL"`
}

func Load() (Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	_ = v.ReadInConfig()

	v.SetDefault("ENV", "dev")
	v.SetDefault("PORT", "8080")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("NLP_ENABLED", true)
	v.SetDefault("NLP_TIMEOUT", "30s")
	v.SetDefault("NLP_MAX_RETRIES", 2)
	v.SetDefault("NLP_RETRY_BASE_DELAY", "300ms")
	v.SetDefault("NLP_CIRCUIT_FAILURE_THRESHOLD", 3)
	v.SetDefault("NLP_CIRCUIT_OPEN_DURATION", "60s")
	v.SetDefault("ESCALATION_INTERVAL", "60s")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
