package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"notebookeval/internal/errdefs"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	HTTPPort int `env:"HTTP_PORT" env-default:"8080"`

	Google GoogleConfig
	Gemini GeminiConfig

	// DriveEndpoint overrides the Drive API base path; empty means the public endpoint.
	DriveEndpoint string `env:"DRIVE_ENDPOINT" env-default:""`

	ScorePolicy string `env:"SCORE_POLICY" env-default:"clamp"`
	EvalWorkers int    `env:"EVAL_WORKERS" env-default:"1"`
	ScratchDir  string `env:"SCRATCH_DIR" env-default:""`

	RedisURL  string        `env:"REDIS_URL" env-default:""`
	ReportTTL time.Duration `env:"REPORT_TTL" env-default:"1h"`

	S3AccessKeyID     string `env:"S3_ACCESS_KEY_ID" env-default:""`
	S3SecretAccessKey string `env:"S3_SECRET_ACCESS_KEY" env-default:""`
	S3Endpoint        string `env:"S3_ENDPOINT" env-default:""`
	S3Region          string `env:"S3_REGION" env-default:"us-east-1"`
	S3Bucket          string `env:"S3_BUCKET" env-default:""`

	KafkaBrokers []string `env:"KAFKA_BROKERS" env-separator:","`
	KafkaTopic   string   `env:"KAFKA_TOPIC" env-default:"notebook-reports"`
}

// GoogleConfig holds the fields of a service-account key file.
type GoogleConfig struct {
	Type                    string `env:"GOOGLE_TYPE" env-default:"service_account" json:"type"`
	ProjectID               string `env:"GOOGLE_PROJECT_ID" env-required:"true" json:"project_id"`
	PrivateKeyID            string `env:"GOOGLE_PRIVATE_KEY_ID" env-required:"true" json:"private_key_id"`
	PrivateKey              string `env:"GOOGLE_PRIVATE_KEY" env-required:"true" json:"private_key"` //nolint:gosec // config struct, not hardcoded cred
	ClientEmail             string `env:"GOOGLE_CLIENT_EMAIL" env-required:"true" json:"client_email"`
	ClientID                string `env:"GOOGLE_CLIENT_ID" env-required:"true" json:"client_id"`
	AuthURI                 string `env:"GOOGLE_AUTH_URI" env-default:"https://accounts.google.com/o/oauth2/auth" json:"auth_uri"`
	TokenURI                string `env:"GOOGLE_TOKEN_URI" env-default:"https://oauth2.googleapis.com/token" json:"token_uri"`
	AuthProviderX509CertURL string `env:"GOOGLE_AUTH_PROVIDER_X509_CERT_URL" env-default:"https://www.googleapis.com/oauth2/v1/certs" json:"auth_provider_x509_cert_url"`
	ClientX509CertURL       string `env:"GOOGLE_CLIENT_X509_CERT_URL" env-default:"" json:"client_x509_cert_url"`
	UniverseDomain          string `env:"GOOGLE_UNIVERSE_DOMAIN" env-default:"googleapis.com" json:"universe_domain"`
}

type GeminiConfig struct {
	APIKey string `env:"GEMINI_API_KEY" env-required:"true"` //nolint:gosec // config struct, not hardcoded cred
	Model  string `env:"GEMINI_MODEL" env-default:"gemini-1.5-flash"`
	// BaseURL overrides the Gemini API endpoint; empty means the public endpoint.
	BaseURL string `env:"GEMINI_BASE_URL" env-default:""`
}

func New() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadConfig("./config/.env", &cfg); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if err := cleanenv.ReadEnv(&cfg); err != nil {
				return nil, err
			}
			return &cfg, cfg.validate()
		}
		return nil, err
	}
	return &cfg, cfg.validate()
}

func (c *Config) validate() error {
	if c.Gemini.APIKey == "" || c.Google.PrivateKey == "" || c.Google.ClientEmail == "" {
		return fmt.Errorf("%w: service account key and GEMINI_API_KEY are required", errdefs.ErrConfig)
	}
	brokers := c.KafkaBrokers[:0]
	for _, b := range c.KafkaBrokers {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	c.KafkaBrokers = brokers

	if c.EvalWorkers < 1 {
		return fmt.Errorf("EVAL_WORKERS must be >= 1, got %d", c.EvalWorkers)
	}
	return nil
}

// ServiceAccountJSON renders the key fields as a service-account JSON document.
// Escaped "\n" sequences in the private key are expanded, since secret stores
// usually keep the PEM block on one line.
func (g GoogleConfig) ServiceAccountJSON() ([]byte, error) {
	key := g
	key.PrivateKey = strings.ReplaceAll(g.PrivateKey, `\n`, "\n")
	return json.Marshal(key)
}
