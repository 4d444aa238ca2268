// Package config loads configuration from environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// DefaultPresignTTL is the read URL lifetime used when none is configured.
const DefaultPresignTTL = time.Hour

// Env holds the configuration values for the application. It is resolved once
// at startup and passed by value into every component.
type Env struct {
	Region         string `env:"AWS_REGION"          envDefault:"us-east-1"`
	Endpoint       string `env:"AWS_ENDPOINT_URL"`
	Table          string `env:"DDB_TABLE,required,notEmpty"`
	Bucket         string `env:"S3_BUCKET,required,notEmpty"`
	TopicARN       string `env:"SNS_TOPIC_ARN,required,notEmpty"`
	UserPoolID     string `env:"COGNITO_USER_POOL_ID"`
	ClientID       string `env:"COGNITO_CLIENT_ID"`
	JWKSURL        string `env:"COGNITO_JWKS_URL"`
	PresignSeconds int    `env:"PRESIGN_TTL_SECONDS" envDefault:"3600"`
	HTTPAddr       string `env:"HTTP_ADDR"           envDefault:":5000"`
	MaxUploadBytes int64  `env:"MAX_UPLOAD_BYTES"    envDefault:"33554432"`
	DevBypassAuth  bool   `env:"DEV_BYPASS_AUTH"     envDefault:"false"`
	LogLevel       string `env:"LOG_LEVEL"           envDefault:"info"`
}

// Load parses the environment into an Env.
func Load() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, fmt.Errorf("parse env: %w", err)
	}
	if e.PresignSeconds <= 0 {
		return Env{}, fmt.Errorf("PRESIGN_TTL_SECONDS must be positive, got %d", e.PresignSeconds)
	}
	if e.MaxUploadBytes <= 0 {
		return Env{}, fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", e.MaxUploadBytes)
	}
	return e, nil
}

// MustLoad reads the environment variables and returns an Env struct.
// It panics when a required variable is missing or malformed.
func MustLoad() Env {
	e, err := Load()
	if err != nil {
		panic(err)
	}
	return e
}

// RequireIdentity checks the Cognito settings needed by the HTTP API.
func (e Env) RequireIdentity() error {
	if strings.TrimSpace(e.UserPoolID) == "" {
		return fmt.Errorf("missing env COGNITO_USER_POOL_ID")
	}
	if strings.TrimSpace(e.ClientID) == "" {
		return fmt.Errorf("missing env COGNITO_CLIENT_ID")
	}
	return nil
}

// PresignTTL returns the configured lifetime of presigned read URLs.
func (e Env) PresignTTL() time.Duration {
	return time.Duration(e.PresignSeconds) * time.Second
}

// Issuer is the token issuer of the configured Cognito user pool.
func (e Env) Issuer() string {
	return fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s", e.Region, e.UserPoolID)
}

// KeySetURL returns the JWKS location, derived from the pool when not set.
func (e Env) KeySetURL() string {
	if e.JWKSURL != "" {
		return e.JWKSURL
	}
	return e.Issuer() + "/.well-known/jwks.json"
}
