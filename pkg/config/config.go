// Package config loads the environment-supplied service connection settings
// and the optional presentational options file.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ml4/tfe-probe/pkg/fault"
)

// Config holds the connection settings for the remote service. All three
// values come from the environment and are required at startup.
type Config struct {
	// Address is the base service address including scheme.
	Address string `validate:"required,url"`
	// Token is the bearer credential attached to every request.
	Token string `validate:"required"`
	// CACertFile is the local trust-anchor certificate path. It is loaded
	// into the transport's root pool; the file must exist.
	CACertFile string `validate:"required,file"`
}

// FromEnv reads TFE_ADDR, TFE_TOKEN and TFE_CACERT. A missing or invalid
// value is a precondition fault. An address without a scheme defaults to
// https.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Address:    os.Getenv("TFE_ADDR"),
		Token:      os.Getenv("TFE_TOKEN"),
		CACertFile: os.Getenv("TFE_CACERT"),
	}

	if cfg.Address == "" {
		return nil, fault.Preconditionf("TFE_ADDR must be exported, e.g. https://tfe.example.com")
	}
	if cfg.Token == "" {
		return nil, fault.Preconditionf("TFE_TOKEN must be exported")
	}
	if cfg.CACertFile == "" {
		return nil, fault.Preconditionf("TFE_CACERT must be exported as a local certificate path")
	}

	if !strings.HasPrefix(cfg.Address, "https://") && !strings.HasPrefix(cfg.Address, "http://") {
		cfg.Address = "https://" + cfg.Address
	}
	cfg.Address = strings.TrimRight(cfg.Address, "/")

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fault.New(fault.Precondition, fmt.Errorf("invalid environment configuration: %w", err))
	}

	return cfg, nil
}
