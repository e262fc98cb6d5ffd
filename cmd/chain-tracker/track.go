// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/chain-tracker/internal/crawl"
	"github.com/pdiddy/chain-tracker/internal/fetch"
	"github.com/pdiddy/chain-tracker/internal/knowledge"
	"github.com/pdiddy/chain-tracker/internal/llm"
	"github.com/pdiddy/chain-tracker/pkg/types"
)

var trackCmd = &cobra.Command{
	Use:   "track [query] [seed-url...]",
	Short: "Recursively crawl discussion chains from seed URLs",
	Long: `Track starts from one or more seed thread URLs and follows the chain of
cross-references and links outward, breadth-first. At every visited thread
an LLM relevance gate decides which discovered links are worth following
given the query and the running knowledge summary.

The full crawl result (visited nodes, final knowledge state) is printed as
JSON. With --save it is also persisted to the local results database.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runTrack,
}

func init() {
	trackCmd.Flags().Int("max-depth", 0, "maximum hops from a seed (default 3)")
	trackCmd.Flags().Float64("threshold", 0, "minimum relevance score to follow a link (default 0.5)")
	trackCmd.Flags().Int("max-per-level", 0, "links followed per visited thread (default 3)")
	trackCmd.Flags().Int("workers", 0, "concurrent fetches within one depth level (default 1)")
	trackCmd.Flags().Bool("save", false, "persist the crawl result to the results database")

	rootCmd.AddCommand(trackCmd)
}

func runTrack(cmd *cobra.Command, args []string) error {
	query, seeds := args[0], args[1:]

	llmCfg, err := requireLLMConfig()
	if err != nil {
		return err
	}
	caller, err := llm.NewClient(llmCfg)
	if err != nil {
		return err
	}

	fetcher := fetch.New(resolveFetchConfig(), os.Stderr)
	tracker := crawl.New(resolveCrawlConfig(cmd), fetcher, caller, os.Stderr)

	result, err := tracker.Track(cmd.Context(), query, seeds)
	if err != nil {
		return err
	}

	if save, _ := cmd.Flags().GetBool("save"); save {
		if runID, saveErr := saveRun(cmd, result); saveErr != nil {
			// A failed save should not discard a finished crawl.
			fmt.Fprintf(os.Stderr, "Warning: saving run failed: %v\n", saveErr)
		} else {
			fmt.Fprintf(os.Stderr, "Saved run %s\n", runID)
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func saveRun(cmd *cobra.Command, result *types.CrawlResult) (string, error) {
	store, err := knowledge.NewStore(resolveStoreConfig())
	if err != nil {
		return "", err
	}
	defer store.Close()
	return store.SaveRun(cmd.Context(), result)
}

// resolveCrawlConfig layers config-file values and flags over the traversal
// defaults. Flags win over the config file.
func resolveCrawlConfig(cmd *cobra.Command) types.CrawlConfig {
	cfg := types.DefaultCrawlConfig()
	if v := viper.GetInt("crawl.max_depth"); v > 0 {
		cfg.MaxDepth = v
	}
	if v := viper.GetFloat64("crawl.threshold"); v > 0 {
		cfg.Threshold = v
	}
	if v := viper.GetInt("crawl.max_per_level"); v > 0 {
		cfg.MaxPerLevel = v
	}
	if v := viper.GetInt("crawl.workers"); v > 0 {
		cfg.FetchWorkers = v
	}

	// --max-depth 0 is meaningful: fetch the seeds and stop.
	if cmd.Flags().Changed("max-depth") {
		if v, _ := cmd.Flags().GetInt("max-depth"); v >= 0 {
			cfg.MaxDepth = v
		}
	}
	if v, _ := cmd.Flags().GetFloat64("threshold"); v > 0 {
		cfg.Threshold = v
	}
	if v, _ := cmd.Flags().GetInt("max-per-level"); v > 0 {
		cfg.MaxPerLevel = v
	}
	if v, _ := cmd.Flags().GetInt("workers"); v > 0 {
		cfg.FetchWorkers = v
	}
	return cfg
}
