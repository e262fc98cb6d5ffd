// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the chain-tracker CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/chain-tracker/internal/secrets"
	"github.com/pdiddy/chain-tracker/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns fallback when it is set, otherwise the secret
// stored under key.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the chain-tracker CLI.
var rootCmd = &cobra.Command{
	Use:   "chain-tracker",
	Short: "Recursive discussion-thread crawler",
	Long: `chain-tracker fetches discussion threads (GitHub issues and PRs, Reddit,
Hacker News, V2EX, generic web pages), extracts their cross-references and
links, and recursively follows the ones an LLM relevance gate judges worth
reading, maintaining a running summary of what has been learned.

Each operation is a subcommand: fetch normalizes a single thread, track runs
the recursive crawl, score runs the relevance gate standalone, and runs
manages stored crawl results.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./chain-tracker.yaml or ~/.config/chain-tracker/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("chain-tracker")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "chain-tracker"))
		}
	}

	viper.SetEnvPrefix("CHAIN_TRACKER")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// resolveLLMConfig layers config-file values over defaults, with .secrets/
// entries filling anything still unset.
func resolveLLMConfig() types.LLMConfig {
	cfg := types.DefaultLLMConfig()
	cfg.BaseURL = secretDefault("llm-api-url", viper.GetString("llm.base_url"))
	cfg.APIKey = secretDefault("llm-api-key", viper.GetString("llm.api_key"))
	if m := secretDefault("llm-model", viper.GetString("llm.model")); m != "" {
		cfg.Model = m
	}
	if v := viper.GetInt("llm.max_tokens"); v > 0 {
		cfg.MaxTokens = v
	}
	if v := viper.GetDuration("llm.timeout"); v > 0 {
		cfg.Timeout = v
	}
	return cfg
}

// requireLLMConfig is resolveLLMConfig for the subcommands that cannot run
// without the reasoning service.
func requireLLMConfig() (types.LLMConfig, error) {
	cfg := resolveLLMConfig()
	if cfg.BaseURL == "" || cfg.APIKey == "" {
		return cfg, fmt.Errorf("LLM credentials required: set llm-api-url and llm-api-key in .secrets/ or llm.base_url and llm.api_key in the config file")
	}
	return cfg, nil
}

func resolveFetchConfig() types.FetchConfig {
	cfg := types.DefaultFetchConfig()
	cfg.GitHubToken = secrets.GitHubToken(loadedSecrets)
	if v := viper.GetString("fetch.user_agent"); v != "" {
		cfg.UserAgent = v
	}
	if v := viper.GetDuration("fetch.timeout"); v > 0 {
		cfg.Timeout = v
	}
	if v := viper.GetInt("fetch.max_comments"); v > 0 {
		cfg.MaxComments = v
	}
	if v := viper.GetInt("fetch.max_body_chars"); v > 0 {
		cfg.MaxBodyChars = v
	}
	return cfg
}

func resolveStoreConfig() types.StoreConfig {
	cfg := types.StoreConfig{DataDir: viper.GetString("store.data_dir")}
	if cfg.DataDir == "" {
		cfg.DataDir = "data"
	}
	return cfg
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
