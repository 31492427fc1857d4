package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// ServiceConfig holds the settings of the HTTP service, read from the environment.
type ServiceConfig struct {
	Port           string        `envconfig:"API_PORT" default:"8080"`
	Env            string        `envconfig:"API_ENV" default:"development"`
	LogLevel       string        `envconfig:"SMOOTH_LOG_LEVEL" default:"info"`
	ComponentDir   string        `envconfig:"COMPONENT_DIR" default:"examples/components"`
	StaticDir      string        `envconfig:"STATIC_DIR" default:""`
	RunCacheTTL    time.Duration `envconfig:"RUN_CACHE_TTL" default:"1h"`
	AllowedOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

func NewServiceConfig() (*ServiceConfig, error) {
	c := new(ServiceConfig)
	if err := envconfig.Process("", c); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *ServiceConfig) IsProduction() bool {
	return c.Env == "production"
}
