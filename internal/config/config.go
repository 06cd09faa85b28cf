// Copyright 2025 Pharma Assistant Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads gateway configuration from a YAML file with
// environment variable overrides. All values are fixed at process start;
// WatchConfig exists for development hot reload only.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

var (
	// ErrMissingRequiredField is returned when a required configuration field is missing
	ErrMissingRequiredField = errors.New("missing required configuration field")
	// ErrInvalidConfigValue is returned when a configuration value is invalid
	ErrInvalidConfigValue = errors.New("invalid configuration value")
)

// Config represents the complete gateway configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	AWS      AWSConfig      `mapstructure:"aws"`
	Bedrock  BedrockConfig  `mapstructure:"bedrock"`
	Athena   AthenaConfig   `mapstructure:"athena"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	TraceLog TraceLogConfig `mapstructure:"tracelog"`
}

// ServerConfig contains the HTTP/WebSocket listener configuration
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// AWSConfig contains settings shared by all AWS collaborator clients
type AWSConfig struct {
	Region string `mapstructure:"region"`
}

// BedrockConfig identifies the knowledge base and model used for document mode
type BedrockConfig struct {
	KnowledgeBaseID     string `mapstructure:"knowledge_base_id"`
	InferenceProfileARN string `mapstructure:"inference_profile_arn"`
}

// AthenaConfig identifies the product catalog and query execution settings
type AthenaConfig struct {
	Database        string `mapstructure:"database"`
	Table           string `mapstructure:"table"`
	Workgroup       string `mapstructure:"workgroup"`
	OutputLocation  string `mapstructure:"output_location"`
	PollIntervalMs  int    `mapstructure:"poll_interval_ms"`
	QueryTimeoutSec int    `mapstructure:"query_timeout_sec"`
}

// LLMConfig selects the narrative/query-generation model provider
type LLMConfig struct {
	Provider string       `mapstructure:"provider"` // "bedrock" or "openai"
	OpenAI   OpenAIConfig `mapstructure:"openai"`
}

// OpenAIConfig contains OpenAI API configuration for the openai provider
type OpenAIConfig struct {
	APIKey string `mapstructure:"apikey"`
	Model  string `mapstructure:"model"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// TraceLogConfig contains query trace storage configuration
type TraceLogConfig struct {
	StorageType string `mapstructure:"storage_type"`
	FilePath    string `mapstructure:"file_path"`
	DBPath      string `mapstructure:"db_path"`
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("configuration validation failed for field '%s': %s", e.Field, e.Message)
}

// LoadOptions contains options for configuration loading
type LoadOptions struct {
	ConfigPath       string
	ValidateRequired bool
}

// Load loads configuration from file and environment variables.
// Environment variables take precedence over config file values.
func Load(configPath string) (*Config, error) {
	return LoadWithOptions(LoadOptions{
		ConfigPath:       configPath,
		ValidateRequired: true,
	})
}

// LoadWithOptions loads configuration with additional options
func LoadWithOptions(opts LoadOptions) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if err := setConfigFile(v, opts.ConfigPath); err != nil {
		return nil, fmt.Errorf("failed to set config file: %w", err)
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("PHARMA_ASSISTANT")

	if err := v.ReadInConfig(); err != nil {
		// Config file not found is not an error if env vars are set
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	setEnvironmentMappings(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if opts.ValidateRequired {
		if err := validateConfig(&config); err != nil {
			return nil, fmt.Errorf("configuration validation failed: %w", err)
		}
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")

	v.SetDefault("aws.region", "us-east-1")

	v.SetDefault("athena.workgroup", "primary")
	v.SetDefault("athena.poll_interval_ms", 500)
	v.SetDefault("athena.query_timeout_sec", 60)

	v.SetDefault("llm.provider", "bedrock")
	v.SetDefault("llm.openai.model", "gpt-4o")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")

	v.SetDefault("tracelog.storage_type", "file")
	v.SetDefault("tracelog.file_path", "./tracelog.jsonl")
	v.SetDefault("tracelog.db_path", "./tracelog.db")
}

// setConfigFile sets the configuration file path with fallback logic
func setConfigFile(v *viper.Viper, configPath string) error {
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		if _, err := os.Stat(envPath); err != nil {
			return fmt.Errorf("config file specified by CONFIG_PATH does not exist: %s", envPath)
		}
		v.SetConfigFile(envPath)
		return nil
	}

	if configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			return fmt.Errorf("config file does not exist: %s", configPath)
		}
		v.SetConfigFile(configPath)
		return nil
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	return nil
}

// setEnvironmentMappings sets explicit environment variable mappings
func setEnvironmentMappings(v *viper.Viper) {
	envMappings := map[string]string{
		"AWS_REGION":             "aws.region",
		"KNOWLEDGE_BASE_ID":      "bedrock.knowledge_base_id",
		"INFERENCE_PROFILE_ARN":  "bedrock.inference_profile_arn",
		"ATHENA_DATABASE":        "athena.database",
		"ATHENA_TABLE":           "athena.table",
		"ATHENA_OUTPUT_LOCATION": "athena.output_location",
		"OPENAI_API_KEY":         "llm.openai.apikey",
		"LOG_LEVEL":              "logging.level",
		"LOG_FORMAT":             "logging.format",
		"LOG_OUTPUT":             "logging.output",
	}

	for envVar, configKey := range envMappings {
		if value := os.Getenv(envVar); value != "" {
			v.Set(configKey, value)
		}
	}
}

// validateConfig validates the configuration for required fields and valid values
func validateConfig(config *Config) error {
	var errs []ValidationError

	if config.AWS.Region == "" {
		errs = append(errs, ValidationError{
			Field:   "aws.region",
			Message: "AWS region is required. Set via config file or AWS_REGION environment variable",
		})
	}

	if config.Bedrock.KnowledgeBaseID == "" {
		errs = append(errs, ValidationError{
			Field:   "bedrock.knowledge_base_id",
			Message: "knowledge base ID is required. Set via config file or KNOWLEDGE_BASE_ID environment variable",
		})
	}

	if config.Bedrock.InferenceProfileARN == "" {
		errs = append(errs, ValidationError{
			Field:   "bedrock.inference_profile_arn",
			Message: "inference profile ARN is required. Set via config file or INFERENCE_PROFILE_ARN environment variable",
		})
	}

	if config.Athena.Database == "" {
		errs = append(errs, ValidationError{
			Field:   "athena.database",
			Message: "Athena database is required",
		})
	}

	if config.Athena.Table == "" {
		errs = append(errs, ValidationError{
			Field:   "athena.table",
			Message: "Athena table is required",
		})
	}

	if config.Athena.OutputLocation == "" {
		errs = append(errs, ValidationError{
			Field:   "athena.output_location",
			Message: "Athena query output location is required",
		})
	}

	if config.Athena.PollIntervalMs <= 0 {
		errs = append(errs, ValidationError{
			Field:   "athena.poll_interval_ms",
			Message: "poll_interval_ms must be greater than 0",
		})
	}

	if config.Athena.QueryTimeoutSec <= 0 {
		errs = append(errs, ValidationError{
			Field:   "athena.query_timeout_sec",
			Message: "query_timeout_sec must be greater than 0",
		})
	}

	validProviders := []string{"bedrock", "openai"}
	if !contains(validProviders, config.LLM.Provider) {
		errs = append(errs, ValidationError{
			Field:   "llm.provider",
			Message: fmt.Sprintf("provider must be one of: %s", strings.Join(validProviders, ", ")),
		})
	}

	if config.LLM.Provider == "openai" && config.LLM.OpenAI.APIKey == "" {
		errs = append(errs, ValidationError{
			Field:   "llm.openai.apikey",
			Message: "OpenAI API key is required when llm.provider is openai. Set via config file or OPENAI_API_KEY environment variable",
		})
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, config.Logging.Level) {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("log level must be one of: %s", strings.Join(validLogLevels, ", ")),
		})
	}

	validLogFormats := []string{"json", "text"}
	if !contains(validLogFormats, config.Logging.Format) {
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("log format must be one of: %s", strings.Join(validLogFormats, ", ")),
		})
	}

	validStorageTypes := []string{"file", "sqlite"}
	if !contains(validStorageTypes, config.TraceLog.StorageType) {
		errs = append(errs, ValidationError{
			Field:   "tracelog.storage_type",
			Message: fmt.Sprintf("storage type must be one of: %s", strings.Join(validStorageTypes, ", ")),
		})
	}

	if len(errs) > 0 {
		var errorMessages []string
		for _, err := range errs {
			errorMessages = append(errorMessages, err.Error())
		}
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(errorMessages, "\n"))
	}

	return nil
}

// MaskSensitiveValues returns a copy of the config with sensitive values masked
func (c *Config) MaskSensitiveValues() *Config {
	masked := *c

	if masked.LLM.OpenAI.APIKey != "" {
		masked.LLM.OpenAI.APIKey = maskValue(masked.LLM.OpenAI.APIKey)
	}

	return &masked
}

// maskValue masks sensitive values, showing only the first 8 characters
func maskValue(value string) string {
	if len(value) <= 8 {
		return strings.Repeat("*", len(value))
	}
	return value[:8] + strings.Repeat("*", len(value)-8)
}

// contains checks if a slice contains a specific string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// WatchConfig enables configuration hot-reloading for development
func WatchConfig(configPath string, callback func(*Config)) error {
	v := viper.New()

	if err := setConfigFile(v, configPath); err != nil {
		return err
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		fmt.Printf("Config file changed: %s\n", e.Name)

		config, err := LoadWithOptions(LoadOptions{
			ConfigPath:       configPath,
			ValidateRequired: true,
		})
		if err != nil {
			fmt.Printf("Failed to reload config: %v\n", err)
			return
		}

		callback(config)
	})

	return nil
}
