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

// Package main provides the conversational query gateway binary. It owns the
// process lifecycle: configuration, logging, collaborator client
// construction, and the WebSocket server.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/spf13/cobra"
	"github.com/your-org/pharma-assistant/internal/athena"
	"github.com/your-org/pharma-assistant/internal/bedrock"
	"github.com/your-org/pharma-assistant/internal/config"
	"github.com/your-org/pharma-assistant/internal/gateway"
	"github.com/your-org/pharma-assistant/internal/health"
	"github.com/your-org/pharma-assistant/internal/llm"
	"github.com/your-org/pharma-assistant/internal/pipeline"
	"github.com/your-org/pharma-assistant/internal/tracelog"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Version is set at build time.
var Version = "dev"

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "gateway",
		Short: "Conversational query gateway for FDA drug product data",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the WebSocket gateway",
		RunE:  runServe,
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := buildLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		logger.Error("Failed to load AWS configuration", zap.Error(err))
		return err
	}

	retriever := bedrock.NewRetriever(awsCfg, cfg.Bedrock.KnowledgeBaseID, cfg.Bedrock.InferenceProfileARN, logger)

	var textGen pipeline.NarrativeGenerator
	switch cfg.LLM.Provider {
	case "openai":
		textGen, err = llm.NewOpenAIGenerator(cfg.LLM.OpenAI.APIKey, cfg.LLM.OpenAI.Model, logger)
		if err != nil {
			logger.Error("Failed to initialize OpenAI generator", zap.Error(err))
			return err
		}
	default:
		textGen = bedrock.NewGenerator(awsCfg, cfg.Bedrock.InferenceProfileARN, logger)
	}

	sqlGenerator := athena.NewSQLGenerator(textGen, cfg.Athena.Database, cfg.Athena.Table, logger)
	executor := athena.NewExecutor(awsCfg, athena.ExecutorConfig{
		Database:       cfg.Athena.Database,
		Workgroup:      cfg.Athena.Workgroup,
		OutputLocation: cfg.Athena.OutputLocation,
		PollInterval:   time.Duration(cfg.Athena.PollIntervalMs) * time.Millisecond,
		QueryTimeout:   time.Duration(cfg.Athena.QueryTimeoutSec) * time.Second,
	}, logger)

	documentPipeline := pipeline.NewDocumentPipeline(retriever, logger)
	databasePipeline := pipeline.NewDatabasePipeline(sqlGenerator, executor, textGen, logger)
	dispatcher := pipeline.NewDispatcher(documentPipeline, databasePipeline, logger)

	traces, err := tracelog.NewStore(tracelog.Config{
		StorageType: cfg.TraceLog.StorageType,
		FilePath:    cfg.TraceLog.FilePath,
		DBPath:      cfg.TraceLog.DBPath,
	}, logger)
	if err != nil {
		logger.Error("Failed to initialize trace store", zap.Error(err))
		return err
	}
	defer func() { _ = traces.Close() }()

	healthManager := health.NewManager("gateway", Version, logger)
	healthManager.AddCheckerFunc("aws_credentials", func(ctx context.Context) health.CheckResult {
		if _, err := awsCfg.Credentials.Retrieve(ctx); err != nil {
			return health.CheckResult{Status: health.StatusUnhealthy, Error: err.Error()}
		}
		return health.CheckResult{Status: health.StatusHealthy}
	})

	server := gateway.NewServer(dispatcher, traces, healthManager, logger)

	logger.Info("Starting gateway",
		zap.String("addr", cfg.Server.Addr),
		zap.String("region", cfg.AWS.Region),
		zap.String("knowledge_base_id", cfg.Bedrock.KnowledgeBaseID),
		zap.String("athena_database", cfg.Athena.Database),
		zap.String("llm_provider", cfg.LLM.Provider))

	if err := server.Router().Run(cfg.Server.Addr); err != nil {
		logger.Error("Server stopped", zap.Error(err))
		return err
	}
	return nil
}

// buildLogger constructs the zap logger from the logging section.
func buildLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	zapCfg := zap.NewProductionConfig()
	if cfg.Format == "text" {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	if cfg.Output != "" {
		zapCfg.OutputPaths = []string{cfg.Output}
	}

	return zapCfg.Build()
}
