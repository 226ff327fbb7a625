package config

import "github.com/caarlos0/env/v10"

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort                 string `env:"HTTP_PORT" envDefault:"8080"`
	ClassifierBaseURL        string `env:"CLASSIFIER_BASE_URL,required"`
	ClassifierAPIKey         string `env:"CLASSIFIER_API_KEY"`
	ClassifierTimeoutSeconds int    `env:"CLASSIFIER_TIMEOUT_SECONDS" envDefault:"30"`
	SnapshotPath             string `env:"SNAPSHOT_PATH" envDefault:"data/sessions.json"`
	MaxSessions              int    `env:"MAX_SESSIONS" envDefault:"50"`
	DatabaseURL              string `env:"DATABASE_URL"`
	RedisAddr                string `env:"REDIS_ADDR"`
	RedisPassword            string `env:"REDIS_PASSWORD"`
	RedisDB                  int    `env:"REDIS_DB" envDefault:"0"`
	JWTSecret                string `env:"JWT_SECRET"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
