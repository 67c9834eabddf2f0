// Package config loads weeklymeals settings from an optional YAML file, a
// .env file and the environment, and sets up the global zap logger.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
)

// Config holds the full application configuration.
type Config struct {
	DataDir               string      `yaml:"data_dir" mapstructure:"data_dir"`
	SourcesFile           string      `yaml:"sources_file" mapstructure:"sources_file"`
	RefreshThresholdHours float64     `yaml:"refresh_threshold_hours" mapstructure:"refresh_threshold_hours"`
	Fetch                 FetchConfig `yaml:"fetch" mapstructure:"fetch"`
	Mail                  MailConfig  `yaml:"mail" mapstructure:"mail"`
	Log                   LogConfig   `yaml:"log" mapstructure:"log"`
}

// FetchConfig configures page downloads.
type FetchConfig struct {
	TimeoutSecs       int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	DebugTimeoutSecs  int     `yaml:"debug_timeout_secs" mapstructure:"debug_timeout_secs"`
	UserAgent         string  `yaml:"user_agent" mapstructure:"user_agent"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
}

// MailConfig holds the SMTP server and credentials.
type MailConfig struct {
	SMTPHost string `yaml:"smtp_host" mapstructure:"smtp_host"`
	SMTPPort int    `yaml:"smtp_port" mapstructure:"smtp_port"`
	Sender   string `yaml:"sender" mapstructure:"sender"`
	Password string `yaml:"password" mapstructure:"password"`
	// Bcc is a comma-separated recipient list.
	Bcc     string `yaml:"bcc" mapstructure:"bcc"`
	Subject string `yaml:"subject" mapstructure:"subject"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// RefreshThreshold returns the ledger staleness threshold.
func (c *Config) RefreshThreshold() time.Duration {
	return time.Duration(c.RefreshThresholdHours * float64(time.Hour))
}

// FetchTimeout returns the per-request timeout for normal or debug runs.
func (c *Config) FetchTimeout(debug bool) time.Duration {
	if debug {
		return time.Duration(c.Fetch.DebugTimeoutSecs) * time.Second
	}
	return time.Duration(c.Fetch.TimeoutSecs) * time.Second
}

// Validate checks settings needed to send mail.
func (c *Config) Validate() error {
	if c.Mail.Sender == "" {
		return eris.New("config: mail.sender is required (or set SENDER)")
	}
	if c.Mail.Password == "" {
		return eris.New("config: mail.password is required (or set PASSWD)")
	}
	if c.DataDir == "" {
		return eris.New("config: data_dir is required")
	}
	return nil
}

// DefaultDataDir returns ~/.weeklymeals, or the working directory when the
// home directory cannot be determined.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".weeklymeals")
}

// Load reads configuration from file and environment. A .env file in the
// working directory is applied to the environment first. When configFile is
// empty, config.yaml is looked up in the working directory and the default
// data directory; a missing file is not an error.
func Load(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, eris.Wrap(err, "config: read .env")
	}

	v := viper.New()

	// Config file
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(DefaultDataDir())
	}

	// Environment
	v.SetEnvPrefix("WEEKLYMEALS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Names used by earlier deployments of the mailer.
	_ = v.BindEnv("mail.sender", "WEEKLYMEALS_MAIL_SENDER", "SENDER")
	_ = v.BindEnv("mail.password", "WEEKLYMEALS_MAIL_PASSWORD", "PASSWD")
	_ = v.BindEnv("mail.bcc", "WEEKLYMEALS_MAIL_BCC", "BCC")

	// Defaults
	dataDir := DefaultDataDir()
	v.SetDefault("data_dir", dataDir)
	v.SetDefault("sources_file", filepath.Join(dataDir, "sources.yaml"))
	v.SetDefault("refresh_threshold_hours", 12)
	v.SetDefault("fetch.timeout_secs", 9)
	v.SetDefault("fetch.debug_timeout_secs", 20)
	v.SetDefault("fetch.user_agent", "")
	v.SetDefault("fetch.requests_per_second", 2)
	v.SetDefault("mail.smtp_host", "smtp.gmail.com")
	v.SetDefault("mail.smtp_port", 465)
	v.SetDefault("mail.sender", "")
	v.SetDefault("mail.password", "")
	v.SetDefault("mail.bcc", "")
	v.SetDefault("mail.subject", "Weekly Meals")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional unless named explicitly)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configFile != "" {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}
