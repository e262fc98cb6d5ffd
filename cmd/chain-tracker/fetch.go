// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/chain-tracker/internal/fetch"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [url]",
	Short: "Fetch and normalize a single discussion thread",
	Long: `Fetch resolves one URL through the matching platform adapter (GitHub
issue/PR, Reddit post, Hacker News item, V2EX topic, or generic web page)
and prints the normalized thread: title, body, comments, and the
cross-references and links found in it.

Output is a markdown report by default; --json prints the raw document.`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().Bool("json", false, "output the normalized document as JSON")
	fetchCmd.Flags().Bool("refs-only", false, "print only the extracted references")
	fetchCmd.Flags().Int("max-comments", 0, "cap on comments fetched (default 100)")

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg := resolveFetchConfig()
	if v, _ := cmd.Flags().GetInt("max-comments"); v > 0 {
		cfg.MaxComments = v
	}

	client := fetch.New(cfg, os.Stderr)
	doc, err := client.Fetch(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	refsOnly, _ := cmd.Flags().GetBool("refs-only")

	switch {
	case refsOnly:
		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(doc.Refs)
		}
		for _, r := range doc.Refs {
			fmt.Printf("%-16s %s\n", r.Type, r.URL)
		}
		fmt.Fprintf(os.Stderr, "%d references\n", len(doc.Refs))
		return nil
	case jsonOutput:
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	default:
		fmt.Print(fetch.Markdown(doc))
		return nil
	}
}
