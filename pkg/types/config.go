// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Configuration defaults.
const (
	DefaultKBFile    = "rag_kb.jsonl"
	DefaultTopK      = 3
	DefaultStrategy  = "graph"
	DefaultLogLevel  = "warn"
	DefaultLogFormat = "text"
)

// RetrievalConfig holds the settings shared by all iac-rag commands. It is
// filled from the config file, IAC_RAG_* environment variables and flags.
type RetrievalConfig struct {
	// KBFile is the path of the JSON Lines knowledge base.
	KBFile string `json:"kb_file" yaml:"kb_file" mapstructure:"kb_file" validate:"required"`

	// TopK is the number of results returned per query (default 3).
	TopK int `json:"top_k" yaml:"top_k" mapstructure:"top_k" validate:"min=1"`

	// Strategy selects the retriever: graph or keyword.
	Strategy string `json:"strategy" yaml:"strategy" mapstructure:"strategy" validate:"oneof=graph keyword"`

	// LogLevel is one of debug, info, warn or error.
	LogLevel string `json:"log_level" yaml:"log_level" mapstructure:"log_level" validate:"oneof=debug info warn warning error"`

	// LogFormat is text or json.
	LogFormat string `json:"log_format" yaml:"log_format" mapstructure:"log_format" validate:"oneof=text json"`
}

// DefaultRetrievalConfig returns the configuration used when nothing is set.
func DefaultRetrievalConfig() RetrievalConfig {
	return RetrievalConfig{
		KBFile:    DefaultKBFile,
		TopK:      DefaultTopK,
		Strategy:  DefaultStrategy,
		LogLevel:  DefaultLogLevel,
		LogFormat: DefaultLogFormat,
	}
}

var configValidator = validator.New()

// Validate checks the configuration values.
func (c RetrievalConfig) Validate() error {
	if err := configValidator.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
