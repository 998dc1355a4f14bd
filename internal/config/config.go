package config

import (
	"github.com/caarlos0/env/v10"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	Authorization Authorization
	Cameras       Cameras
	Scan          Scan
	Server        Server
}

type Authorization struct {
	Cookie string `env:"cookie"`
	Token  string `env:"token"`
}

// Cameras maps a camera name to its snapshot URL, e.g. CAMERAS=front=http://...,back=http://...
type Cameras struct {
	URLs map[string]string `env:"CAMERAS" envKeyValSeparator:"=" validate:"dive,keys,required,endkeys,url"`
}

type Scan struct {
	Patterns        []string `env:"SCAN_PATTERNS" envDefault:"*.jpg,*.jpeg" validate:"min=1,dive,required"`
	IgnoreExtension bool     `env:"SCAN_IGNORE_EXTENSION" envDefault:"false"`
	Threshold       int      `env:"SCAN_THRESHOLD" envDefault:"50" validate:"gte=1"`
	Workers         int      `env:"SCAN_WORKERS" envDefault:"4" validate:"gte=1,lte=256"`
}

type Server struct {
	Port      string `env:"PORT" envDefault:"8081" validate:"numeric"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=trace debug info warn error"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console" validate:"oneof=console json"`
	FetchFPS  int    `env:"FETCH_FPS" envDefault:"1" validate:"gte=1,lte=60"`
	History   int    `env:"HISTORY" envDefault:"32" validate:"gte=1"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func NewConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return cfg, err
	}

	if err := validate.Struct(cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}
