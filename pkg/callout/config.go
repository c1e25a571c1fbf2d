// Package callout wires the outbound-call pipeline: configuration,
// call creation, status watching, artifact persistence and optional
// vendor-side scrubbing.
package callout

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/harunnryd/callout/pkg/configutil"
	"github.com/harunnryd/callout/pkg/errorsx"
	"github.com/spf13/viper"
)

// Config is the immutable process configuration, constructed once at
// startup and passed explicitly to every component.
type Config struct {
	RetellAPIKey string `mapstructure:"retell_api_key"`
	RetellAPIURL string `mapstructure:"retell_api_url"`

	FromPhoneNumber string `mapstructure:"from_phone_number"`
	ToPhoneNumber   string `mapstructure:"to_phone_number"`

	// Poll timing, in seconds.
	MaxWaitTime  int `mapstructure:"max_wait_time"`
	WaitInterval int `mapstructure:"wait_interval"`

	// Prompt dynamic variables, forwarded to the agent when set.
	MyFullName    string `mapstructure:"my_full_name"`
	MyPhoneNumber string `mapstructure:"my_phone_number"`
	MySSN         string `mapstructure:"my_ssn"`

	// Opt-in flags; only yes/true/1 enable them.
	ScrubSensitiveCallData string `mapstructure:"scrub_sensitive_call_data"`
	ArtifactDownloadStrict string `mapstructure:"artifact_download_strict"`
	RedactLogPII           string `mapstructure:"redact_log_pii"`

	ArtifactsDir string `mapstructure:"artifacts_dir"`
	AppLogDir    string `mapstructure:"app_log_dir"`
	MetricsPath  string `mapstructure:"metrics_path"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

var configKeys = []string{
	"retell_api_key",
	"retell_api_url",
	"from_phone_number",
	"to_phone_number",
	"max_wait_time",
	"wait_interval",
	"my_full_name",
	"my_phone_number",
	"my_ssn",
	"scrub_sensitive_call_data",
	"artifact_download_strict",
	"redact_log_pii",
	"artifacts_dir",
	"app_log_dir",
	"metrics_path",
	"log_level",
	"log_format",
}

var requiredKeys = []string{
	"RETELL_API_KEY",
	"FROM_PHONE_NUMBER",
	"TO_PHONE_NUMBER",
}

// LoadConfig reads configuration from the process environment and an
// optional .env file in the working directory.
func LoadConfig() (Config, error) {
	return LoadConfigFile(".env")
}

// LoadConfigFile is LoadConfig with an explicit dotenv path. A missing
// file is not an error; the environment always wins over the file.
func LoadConfigFile(envFile string) (Config, error) {
	v := viper.New()
	for _, key := range configKeys {
		if err := v.BindEnv(key); err != nil {
			return Config{}, errorsx.Wrap(err, errorsx.ReasonConfig)
		}
	}
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			v.SetConfigFile(envFile)
			v.SetConfigType("env")
			if err := v.ReadInConfig(); err != nil {
				return Config{}, errorsx.Wrap(err, errorsx.ReasonConfig)
			}
		}
	}
	v.SetDefault("retell_api_url", "https://api.retellai.com")
	v.SetDefault("max_wait_time", 180)
	v.SetDefault("wait_interval", 6)
	v.SetDefault("redact_log_pii", "yes")
	v.SetDefault("artifacts_dir", "./logs/call_logs")
	v.SetDefault("app_log_dir", "./logs/appl_logs")
	v.SetDefault("metrics_path", "./logs/metrics/call_metrics.jsonl")
	v.SetDefault("log_level", "INFO")
	v.SetDefault("log_format", "json")

	settings := v.AllSettings()
	if err := configutil.ValidateSettings(settings, configutil.Schema{Required: requiredKeys}); err != nil {
		return Config{}, errorsx.Wrap(err, errorsx.ReasonConfig)
	}
	var cfg Config
	if err := configutil.DecodeSettings(settings, &cfg); err != nil {
		return Config{}, errorsx.Wrap(err, errorsx.ReasonConfig)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, errorsx.Wrap(err, errorsx.ReasonConfig)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if err := configutil.RequireString(c.RetellAPIKey, "RETELL_API_KEY"); err != nil {
		return err
	}
	if err := configutil.RequireString(c.FromPhoneNumber, "FROM_PHONE_NUMBER"); err != nil {
		return err
	}
	if err := configutil.RequireString(c.ToPhoneNumber, "TO_PHONE_NUMBER"); err != nil {
		return err
	}
	if err := configutil.RequirePositive(c.MaxWaitTime, "MAX_WAIT_TIME"); err != nil {
		return err
	}
	return configutil.RequirePositive(c.WaitInterval, "WAIT_INTERVAL")
}

// MaxWait is the polling deadline as a duration.
func (c Config) MaxWait() time.Duration {
	return time.Duration(c.MaxWaitTime) * time.Second
}

// PollInterval is the fixed sleep between status polls.
func (c Config) PollInterval() time.Duration {
	return time.Duration(c.WaitInterval) * time.Second
}

// ScrubEnabled reports whether the vendor-side scrub step runs.
func (c Config) ScrubEnabled() bool {
	return configutil.TruthyFlag(c.ScrubSensitiveCallData)
}

// StrictArtifacts reports whether an artifact failure aborts the run.
func (c Config) StrictArtifacts() bool {
	return configutil.TruthyFlag(c.ArtifactDownloadStrict)
}

// RedactPII reports whether local log redaction is on.
func (c Config) RedactPII() bool {
	return configutil.TruthyFlag(c.RedactLogPII)
}

// DynamicVariables builds the prompt variables from whichever personal
// fields are configured.
func (c Config) DynamicVariables() map[string]string {
	vars := make(map[string]string)
	if c.MyFullName != "" {
		vars["full_name"] = c.MyFullName
	}
	if c.MyPhoneNumber != "" {
		vars["phone_number"] = c.MyPhoneNumber
	}
	if c.MySSN != "" {
		vars["ssn"] = c.MySSN
	}
	if len(vars) == 0 {
		return nil
	}
	return vars
}

// Level parses the configured log level, defaulting to INFO.
func (c Config) Level() slog.Level {
	switch strings.ToUpper(strings.TrimSpace(c.LogLevel)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
