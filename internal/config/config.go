package config

import "github.com/kelseyhightower/envconfig"

// Config holds application configuration loaded from environment variables.
type Config struct {
	Debug              bool   `envconfig:"DEBUG" default:"false"`
	Host               string `envconfig:"HOST" default:"0.0.0.0"`
	Port               int    `envconfig:"PORT" default:"8000"`
	LogLevel           string `envconfig:"LOG_LEVEL" default:"info"`
	DatabaseURL        string `envconfig:"DATABASE_URL" required:"true"`
	SecretKey          string `envconfig:"SECRET_KEY" required:"true"`
	Algorithm          string `envconfig:"ALGORITHM" default:"HS256"`
	TokenExpiryMinutes int    `envconfig:"ACCESS_TOKEN_EXPIRE_MINUTES" default:"30"`
	NpmRegistry        string `envconfig:"NPM_REGISTRY" default:"https://registry.npmjs.org"`
	NpmCacheDir        string `envconfig:"NPM_CACHE_DIR" default:"./npm-cache"`
	InstallTimeoutSecs int    `envconfig:"NPM_INSTALL_TIMEOUT_SECONDS" default:"300"`
	SyncInstall        bool   `envconfig:"NPM_SYNC_INSTALL" default:"false"`
	BcryptCost         int    `envconfig:"BCRYPT_COST" default:"12"`
	Version            string `envconfig:"VERSION" default:"dev"`
}

// Load reads configuration from environment variables into a Config struct.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
