package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIURL          string
	APIToken        string
	OrganizationID  string
	PageSize        int
	MessageTake     int
	CutoffHour      int
	HTTPTimeout     time.Duration
	OutputDir       string
	MembersFile     string
	CredentialsFile string
	DriveFolderID   string
	UploadRetries   int
	LogLevel        string
	DatabaseURL     string
	NatsURL         string
	NatsToken       string
	SlackBotToken   string
	SlackChannel    string
	StatusPort      int
}

// LoadEnvFile loads variables from a dotenv file without overriding the
// ones already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return godotenv.Load(path)
}

func Load() Config {
	return Config{
		APIURL:          envStr("UTALK_API_URL", "https://app-utalk.umbler.com/api"),
		APIToken:        envStr("UTALK_TOKEN", ""),
		OrganizationID:  envStr("UTALK_ORGANIZATION_ID", ""),
		PageSize:        envInt("SCRIBE_PAGE_SIZE", 20),
		MessageTake:     envInt("SCRIBE_MESSAGE_TAKE", 50),
		CutoffHour:      envInt("SCRIBE_CUTOFF_HOUR", 20),
		HTTPTimeout:     time.Duration(envInt("SCRIBE_HTTP_TIMEOUT_SECONDS", 30)) * time.Second,
		OutputDir:       envStr("SCRIBE_OUTPUT_DIR", "transcripts"),
		MembersFile:     envStr("SCRIBE_MEMBERS_FILE", "Members.json"),
		CredentialsFile: envStr("GOOGLE_CREDENTIALS_FILE", "service-account.json"),
		DriveFolderID:   envStr("DRIVE_FOLDER_ID", ""),
		UploadRetries:   envInt("SCRIBE_UPLOAD_RETRIES", 0),
		LogLevel:        envStr("LOG_LEVEL", "info"),
		DatabaseURL:     envStr("DATABASE_URL", ""),
		NatsURL:         envStr("NATS_URL", ""),
		NatsToken:       envStr("NATS_TOKEN", ""),
		SlackBotToken:   envStr("SLACK_BOT_TOKEN", ""),
		SlackChannel:    envStr("SLACK_CHANNEL", ""),
		StatusPort:      envInt("SCRIBE_STATUS_PORT", 0),
	}
}

// Validate reports settings the run cannot start without.
func (c Config) Validate() error {
	var errs []error
	if c.APIToken == "" {
		errs = append(errs, errors.New("UTALK_TOKEN is required"))
	}
	if c.OrganizationID == "" {
		errs = append(errs, errors.New("UTALK_ORGANIZATION_ID is required"))
	}
	if c.CutoffHour < 1 || c.CutoffHour > 24 {
		errs = append(errs, errors.New("SCRIBE_CUTOFF_HOUR must be between 1 and 24"))
	}
	if c.UploadRetries < 0 {
		errs = append(errs, errors.New("SCRIBE_UPLOAD_RETRIES must not be negative"))
	}
	return errors.Join(errs...)
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
