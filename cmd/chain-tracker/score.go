// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/chain-tracker/internal/gate"
	"github.com/pdiddy/chain-tracker/internal/llm"
	"github.com/pdiddy/chain-tracker/pkg/types"
)

var scoreCmd = &cobra.Command{
	Use:   "score [query] [url...]",
	Short: "Run the relevance gate on candidate links",
	Long: `Score sends candidate links through the LLM relevance gate without
crawling anything, useful for tuning thresholds and inspecting how the gate
judges a set of links against a query.

Candidates come from the command line as bare URLs, or from stdin as a JSON
array of {url, anchor, context} objects when no URLs are given.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScore,
}

func init() {
	scoreCmd.Flags().String("knowledge", "", "current knowledge summary the gate scores against")
	scoreCmd.Flags().Float64("threshold", 0.5, "minimum score to keep a candidate")

	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, args []string) error {
	llmCfg, err := requireLLMConfig()
	if err != nil {
		return err
	}
	caller, err := llm.NewClient(llmCfg)
	if err != nil {
		return err
	}

	candidates, err := scoreCandidates(args[1:])
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		return fmt.Errorf("no candidates: pass URLs as arguments or a JSON array on stdin")
	}

	knowledgeState, _ := cmd.Flags().GetString("knowledge")
	threshold, _ := cmd.Flags().GetFloat64("threshold")

	g := &gate.Gate{LLM: caller, Threshold: threshold, Log: os.Stderr}
	scored := g.Score(cmd.Context(), args[0], knowledgeState, candidates)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(scored); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "%d of %d candidates at or above %.2f\n", len(scored), len(candidates), threshold)
	return nil
}

// scoreCandidates builds the candidate list from URL arguments, or from a
// JSON array on stdin when no URLs were given.
func scoreCandidates(urls []string) ([]types.Candidate, error) {
	if len(urls) > 0 {
		out := make([]types.Candidate, 0, len(urls))
		for _, u := range urls {
			out = append(out, types.Candidate{URL: u})
		}
		return out, nil
	}

	var out []types.Candidate
	if err := json.NewDecoder(os.Stdin).Decode(&out); err != nil {
		return nil, fmt.Errorf("reading candidates from stdin: %w", err)
	}
	return out, nil
}
