package configuration

import (
	stderrors "errors"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"ec2reporter/errors"
)

const (
	packageName = "configuration"

	// DefaultSlackAPIURL is the Slack Web API base URL; slack-go requires the trailing slash
	DefaultSlackAPIURL = "https://slack.com/api/"

	slackTokenPrefix = "xoxb-"
)

// Config holds the application configuration
type Config struct {
	AWSRegion       string
	AWSProfile      string
	AWSEndpointURL  string
	AccessKeyID     string
	AccessSecret    string
	SlackBotToken   string
	SlackChannelID  string
	SlackAPIURL     string
	SlackDisabled   bool
	OutputDir       string
	ReportPrefix    string
	LogLevel        string
	LogFormat       string
	RequestTimeout  int
	MetricsTextfile string
}

// Timeout returns the per-request network timeout
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// SlackSettings validates the Slack bot token and channel id.
// A returned error is a configuration error that disables delivery for the run;
// warnings are format heuristics that are logged but do not disable anything.
func (c *Config) SlackSettings() (warnings []string, err error) {
	if c.SlackDisabled {
		return nil, errors.New(errors.ErrConfigInvalid, "slack delivery disabled by configuration",
			map[string]interface{}{
				"config_key": "SLACK_DISABLED",
			}, nil)
	}

	if c.SlackBotToken == "" || !strings.HasPrefix(c.SlackBotToken, slackTokenPrefix) {
		return nil, errors.New(errors.ErrConfigInvalid, "SLACK_BOT_TOKEN not set or invalid format, must start with 'xoxb-'",
			map[string]interface{}{
				"config_key": "SLACK_BOT_TOKEN",
			}, nil)
	}

	if c.SlackChannelID == "" {
		return nil, errors.New(errors.ErrConfigInvalid, "SLACK_CHANNEL_ID not set",
			map[string]interface{}{
				"config_key": "SLACK_CHANNEL_ID",
			}, nil)
	}

	if !strings.HasPrefix(c.SlackChannelID, "C") && !strings.HasPrefix(c.SlackChannelID, "G") {
		warnings = append(warnings, "SLACK_CHANNEL_ID does not start with 'C' (public) or 'G' (private); continuing anyway")
	}

	return warnings, nil
}

// MaskedToken returns the bot token with everything but the last four characters hidden
func (c *Config) MaskedToken() string {
	if len(c.SlackBotToken) <= 8 {
		return strings.Repeat("*", len(c.SlackBotToken))
	}
	return strings.Repeat("*", len(c.SlackBotToken)-4) + c.SlackBotToken[len(c.SlackBotToken)-4:]
}

// Initialize sets up the configuration system, reading ./.env when it exists
func Initialize() (*Config, error) {
	return InitializeFrom("")
}

// InitializeFrom sets up the configuration system from envFile.
// An empty envFile means an optional ./.env; a named file must exist.
func InitializeFrom(envFile string) (*Config, error) {
	logger := zap.L().With(
		zap.String("package", packageName),
		zap.String("function", "InitializeFrom"),
	)

	// Set default values
	viper.SetDefault("AWS_REGION", "us-east-1")
	viper.SetDefault("SLACK_API_URL", DefaultSlackAPIURL)
	viper.SetDefault("SLACK_DISABLED", false)
	viper.SetDefault("OUTPUT_DIR", ".")
	viper.SetDefault("REPORT_PREFIX", "AWS_EC2_Instances")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "json")
	viper.SetDefault("REQUEST_TIMEOUT_SECONDS", 30)

	// Configure Viper to read from environment
	viper.AutomaticEnv()

	optional := envFile == ""
	if optional {
		envFile = ".env"
	}
	viper.SetConfigFile(envFile)
	viper.SetConfigType("env")
	if err := viper.ReadInConfig(); err != nil {
		if !optional || !isConfigNotFound(err) {
			return nil, errors.New(errors.ErrConfigParse, "error reading config file",
				map[string]interface{}{
					"config_file": viper.ConfigFileUsed(),
				}, err)
		}
		logger.Info("No .env file found, using environment variables and defaults",
			zap.String("operation", "config_loading"),
		)
	}

	region := viper.GetString("AWS_REGION")
	if region == "" {
		return nil, errors.New(errors.ErrConfigInvalid, "invalid AWS_REGION",
			map[string]interface{}{
				"config_key": "AWS_REGION",
			}, nil)
	}
	logger.Info("AWS region configured",
		zap.String("region", region),
		zap.String("operation", "config_validation"),
	)

	outputDir := viper.GetString("OUTPUT_DIR")
	if outputDir == "" {
		return nil, errors.New(errors.ErrConfigInvalid, "invalid OUTPUT_DIR",
			map[string]interface{}{
				"config_key": "OUTPUT_DIR",
			}, nil)
	}

	prefix := viper.GetString("REPORT_PREFIX")
	if prefix == "" || strings.ContainsAny(prefix, `/\`) {
		return nil, errors.New(errors.ErrConfigInvalid, "invalid REPORT_PREFIX",
			map[string]interface{}{
				"config_key": "REPORT_PREFIX",
				"value":      prefix,
			}, nil)
	}
	logger.Info("Report output configured",
		zap.String("dir", outputDir),
		zap.String("prefix", prefix),
		zap.String("operation", "config_validation"),
	)

	timeout := viper.GetInt("REQUEST_TIMEOUT_SECONDS")
	if timeout <= 0 {
		return nil, errors.New(errors.ErrConfigInvalid, "invalid REQUEST_TIMEOUT_SECONDS",
			map[string]interface{}{
				"config_key": "REQUEST_TIMEOUT_SECONDS",
				"value":      timeout,
			}, nil)
	}
	logger.Info("Request timeout configured",
		zap.Int("seconds", timeout),
		zap.String("operation", "config_validation"),
	)

	apiURL := viper.GetString("SLACK_API_URL")
	if !strings.HasSuffix(apiURL, "/") {
		apiURL += "/"
	}

	config := &Config{
		AWSRegion:       region,
		AWSProfile:      viper.GetString("AWS_PROFILE"),
		AWSEndpointURL:  viper.GetString("AWS_ENDPOINT_URL"),
		AccessKeyID:     viper.GetString("AWS_ACCESS_KEY_ID"),
		AccessSecret:    viper.GetString("AWS_SECRET_ACCESS_KEY"),
		SlackBotToken:   viper.GetString("SLACK_BOT_TOKEN"),
		SlackChannelID:  viper.GetString("SLACK_CHANNEL_ID"),
		SlackAPIURL:     apiURL,
		SlackDisabled:   viper.GetBool("SLACK_DISABLED"),
		OutputDir:       outputDir,
		ReportPrefix:    prefix,
		LogLevel:        viper.GetString("LOG_LEVEL"),
		LogFormat:       viper.GetString("LOG_FORMAT"),
		RequestTimeout:  timeout,
		MetricsTextfile: viper.GetString("METRICS_TEXTFILE"),
	}

	logger.Info("Configuration loaded successfully",
		zap.String("operation", "config_complete"),
		zap.String("slack_channel_id", config.SlackChannelID),
		zap.String("slack_bot_token", config.MaskedToken()),
	)
	return config, nil
}

// isConfigNotFound reports whether err means the optional .env file is absent.
// viper returns an fs error rather than ConfigFileNotFoundError when SetConfigFile is used.
func isConfigNotFound(err error) bool {
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		return true
	}
	return stderrors.Is(err, fs.ErrNotExist)
}
