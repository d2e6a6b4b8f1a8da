package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/poiesic/newsdigest/ai"
	"github.com/poiesic/newsdigest/collector/mailbox"
)

// Environment variable names.
const (
	EnvDatabasePath       = "DATABASE_PATH"
	EnvAnthropicAPIKey    = "ANTHROPIC_API_KEY"
	EnvOpenAIAPIKey       = "OPENAI_API_KEY"
	EnvGenerationBackend  = "GENERATION_BACKEND"
	EnvGenerationHost     = "GENERATION_HOST"
	EnvGenerationModel    = "GENERATION_MODEL"
	EnvEmbeddingHost      = "EMBEDDING_HOST"
	EnvEmbeddingModel     = "EMBEDDING_MODEL"
	EnvGmailClientID      = "GMAIL_CLIENT_ID"
	EnvGmailClientSecret  = "GMAIL_CLIENT_SECRET"
	EnvGmailRefreshToken  = "GMAIL_REFRESH_TOKEN"
	EnvLogLevel           = "LOG_LEVEL"
	EnvSourcesFile        = "SOURCES_FILE"
	EnvMaxConcurrent      = "MAX_CONCURRENT"
	EnvGenerateEmbeddings = "GENERATE_EMBEDDINGS"
	EnvPublishDir         = "PUBLISH_DIR"
	EnvPublishS3Bucket    = "PUBLISH_S3_BUCKET"
	EnvPublishS3Prefix    = "PUBLISH_S3_PREFIX"
	EnvKafkaBrokers       = "KAFKA_BROKERS"
	EnvKafkaTopic         = "KAFKA_TOPIC"
	EnvSchedule           = "SCHEDULE"
	EnvPort               = "PORT"
)

// Settings is the process configuration.
type Settings struct {
	DatabasePath string

	AnthropicAPIKey   string
	OpenAIAPIKey      string
	GenerationBackend string
	GenerationHost    string
	GenerationModel   string
	EmbeddingHost     string
	EmbeddingModel    string

	GmailClientID     string
	GmailClientSecret string
	GmailRefreshToken string

	LogLevel           string
	SourcesFile        string
	MaxConcurrent      int
	GenerateEmbeddings bool

	PublishDir      string
	PublishS3Bucket string
	PublishS3Prefix string
	KafkaBrokers    []string
	KafkaTopic      string

	Schedule string
	Port     int
}

// Defaults returns the settings used when nothing is configured.
func Defaults() *Settings {
	return &Settings{
		DatabasePath:       "newsdigest.db",
		GenerationBackend:  ai.BackendAnthropic,
		LogLevel:           "info",
		MaxConcurrent:      5,
		GenerateEmbeddings: true,
		KafkaTopic:         "newsdigest.payloads",
		Port:               8000,
	}
}

// Load reads envFile into the environment, if it exists, then builds
// Settings from the environment. Variables already set in the process
// environment take precedence over the file. An empty envFile skips the file.
func Load(envFile string) (*Settings, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}
	return FromEnv()
}

// FromEnv builds Settings from the process environment over Defaults.
func FromEnv() (*Settings, error) {
	s := Defaults()

	setString(&s.DatabasePath, EnvDatabasePath)
	setString(&s.AnthropicAPIKey, EnvAnthropicAPIKey)
	setString(&s.OpenAIAPIKey, EnvOpenAIAPIKey)
	setString(&s.GenerationBackend, EnvGenerationBackend)
	setString(&s.GenerationHost, EnvGenerationHost)
	setString(&s.GenerationModel, EnvGenerationModel)
	setString(&s.EmbeddingHost, EnvEmbeddingHost)
	setString(&s.EmbeddingModel, EnvEmbeddingModel)
	setString(&s.GmailClientID, EnvGmailClientID)
	setString(&s.GmailClientSecret, EnvGmailClientSecret)
	setString(&s.GmailRefreshToken, EnvGmailRefreshToken)
	setString(&s.LogLevel, EnvLogLevel)
	setString(&s.SourcesFile, EnvSourcesFile)
	setString(&s.PublishDir, EnvPublishDir)
	setString(&s.PublishS3Bucket, EnvPublishS3Bucket)
	setString(&s.PublishS3Prefix, EnvPublishS3Prefix)
	setString(&s.KafkaTopic, EnvKafkaTopic)
	setString(&s.Schedule, EnvSchedule)

	if v := os.Getenv(EnvKafkaBrokers); v != "" {
		s.KafkaBrokers = splitList(v)
	}

	var errs []error
	if err := setInt(&s.MaxConcurrent, EnvMaxConcurrent); err != nil {
		errs = append(errs, err)
	}
	if err := setInt(&s.Port, EnvPort); err != nil {
		errs = append(errs, err)
	}
	if err := setBool(&s.GenerateEmbeddings, EnvGenerateEmbeddings); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return s, nil
}

// GmailConfigured reports whether all mailbox credentials are present.
func (s *Settings) GmailConfigured() bool {
	return s.GmailClientID != "" && s.GmailClientSecret != "" && s.GmailRefreshToken != ""
}

// GmailCredentials returns the mailbox credentials.
func (s *Settings) GmailCredentials() mailbox.Credentials {
	return mailbox.Credentials{
		ClientID:     s.GmailClientID,
		ClientSecret: s.GmailClientSecret,
		RefreshToken: s.GmailRefreshToken,
	}
}

// AIConfig maps settings onto an ai.Config. The generation key follows the
// backend; embeddings always use the OpenAI key.
func (s *Settings) AIConfig() *ai.Config {
	opts := []ai.ConfigOption{
		ai.WithGenerationBackend(s.GenerationBackend),
		ai.WithEmbeddingAPIKey(s.OpenAIAPIKey),
	}
	if strings.EqualFold(s.GenerationBackend, ai.BackendOpenAI) {
		opts = append(opts, ai.WithGenerationAPIKey(s.OpenAIAPIKey))
	} else {
		opts = append(opts, ai.WithGenerationAPIKey(s.AnthropicAPIKey))
	}
	if s.GenerationHost != "" {
		opts = append(opts, ai.WithGenerationHost(s.GenerationHost))
	}
	if s.GenerationModel != "" {
		opts = append(opts, ai.WithGenerationModel(s.GenerationModel))
	}
	if s.EmbeddingHost != "" {
		opts = append(opts, ai.WithEmbeddingHost(s.EmbeddingHost))
	}
	if s.EmbeddingModel != "" {
		opts = append(opts, ai.WithEmbeddingModel(s.EmbeddingModel))
	}
	return ai.NewConfig(opts...)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("%s: invalid integer %q", key, v)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("%s: invalid boolean %q", key, v)
	}
	*dst = b
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
