// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the iac-rag CLI. It retrieves
// Terraform reference snippets for code-generation prompts from a JSON
// Lines knowledge base, using either the snippet graph or the keyword
// baseline.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/iac-rag/internal/kb"
	"github.com/pdiddy/iac-rag/internal/logx"
	"github.com/pdiddy/iac-rag/internal/retrieve"
	"github.com/pdiddy/iac-rag/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the iac-rag CLI.
var rootCmd = &cobra.Command{
	Use:   "iac-rag",
	Short: "Retrieve Terraform reference snippets for IaC generation prompts",
	Long: `iac-rag finds the knowledge base snippets most relevant to a natural
language request for infrastructure code. The default graph strategy links
snippets to their keywords and AWS resource types and ranks them by keyword,
resource and connectivity similarity; the keyword strategy is a plain
substring baseline.

The knowledge base is a JSON Lines file of {snippet_name, keywords,
iac_code, original_prompt} records (default rag_kb.jsonl).`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./iac-rag.yaml or ~/.config/iac-rag/iac-rag.yaml)")
	rootCmd.PersistentFlags().String("kb", types.DefaultKBFile, "knowledge base JSON Lines file")
	rootCmd.PersistentFlags().String("log-level", types.DefaultLogLevel, "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", types.DefaultLogFormat, "log format: text or json")

	_ = viper.BindPFlag("kb_file", rootCmd.PersistentFlags().Lookup("kb"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))

	viper.SetDefault("top_k", types.DefaultTopK)
	viper.SetDefault("strategy", types.DefaultStrategy)
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("iac-rag")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "iac-rag"))
		}
	}

	viper.SetEnvPrefix("IAC_RAG")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig resolves the effective configuration. Command flags named
// "strategy" and "top-k" override the config file when set.
func loadConfig(cmd *cobra.Command) (types.RetrievalConfig, error) {
	cfg := types.DefaultRetrievalConfig()
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("reading configuration: %w", err)
	}

	if f := cmd.Flags().Lookup("strategy"); f != nil && f.Changed {
		cfg.Strategy = f.Value.String()
	}
	if f := cmd.Flags().Lookup("top-k"); f != nil && f.Changed {
		cfg.TopK, _ = cmd.Flags().GetInt("top-k")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// newLogger builds the stderr logger for cfg.
func newLogger(cfg types.RetrievalConfig) *slog.Logger {
	return logx.New(os.Stderr, logx.LevelFromString(cfg.LogLevel), cfg.LogFormat)
}

// setup loads the configuration and returns it with the configured
// retriever.
func setup(cmd *cobra.Command) (types.RetrievalConfig, retrieve.Retriever, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return cfg, nil, err
	}
	logger := newLogger(cfg)
	ret, err := retrieve.New(cfg.Strategy, kb.NewOsLoader(cfg.KBFile, logger), logger)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, ret, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
