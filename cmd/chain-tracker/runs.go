// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/chain-tracker/internal/knowledge"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Manage stored crawl runs (list, show, search, export)",
	Long: `Runs manages the local SQLite database of saved crawl results. Use
subcommands to list past runs, show one run's nodes, full-text search node
titles and bodies across all runs, or export a run as YAML.`,
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored crawl runs, newest first",
	RunE:  runRunsList,
}

func runRunsList(cmd *cobra.Command, args []string) error {
	store, err := knowledge.NewStore(resolveStoreConfig())
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.ListRuns(cmd.Context())
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No stored runs.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-36s  %-19s  %-5s  %s\n", "ID", "Created", "Nodes", "Query")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 90))
	for _, r := range runs {
		query := r.Query
		if len(query) > 40 {
			query = query[:37] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-36s  %-19s  %-5d  %s\n",
			r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.TotalFetched, query)
	}
	fmt.Fprintf(os.Stdout, "\n%d runs\n", len(runs))
	return nil
}

var runsShowCmd = &cobra.Command{
	Use:   "show [run-id]",
	Short: "Show one stored run's knowledge state and visited nodes",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	store, err := knowledge.NewStore(resolveStoreConfig())
	if err != nil {
		return err
	}
	defer store.Close()

	result, err := store.GetRun(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Query: %s\n", result.Query)
	fmt.Printf("Knowledge: %s\n", result.KnowledgeState)
	fmt.Printf("Nodes: %d\n\n", result.TotalFetched)
	for i, n := range result.Nodes {
		title := n.Title
		if title == "" {
			title = n.URL
		}
		fmt.Printf("%2d. depth=%d score=%.2f %s\n    %s\n", i+1, n.Depth, n.Score, title, n.URL)
		if n.Error != "" {
			fmt.Printf("    error: %s\n", n.Error)
		}
	}
	return nil
}

var runsSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Full-text search node titles and bodies across all runs",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsSearch,
}

func runRunsSearch(cmd *cobra.Command, args []string) error {
	store, err := knowledge.NewStore(resolveStoreConfig())
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("max-results")
	hits, err := store.SearchNodes(cmd.Context(), args[0], limit)
	if err != nil {
		return err
	}
	if len(hits) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	for i, h := range hits {
		title := h.Title
		if title == "" {
			title = h.URL
		}
		fmt.Printf("%2d. %s\n    run=%s depth=%d %s\n", i+1, title, h.RunID, h.Depth, h.URL)
	}
	fmt.Fprintf(os.Stdout, "\n%d results\n", len(hits))
	return nil
}

var runsExportCmd = &cobra.Command{
	Use:   "export [run-id]",
	Short: "Export one stored run as YAML to stdout",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsExport,
}

func runRunsExport(cmd *cobra.Command, args []string) error {
	store, err := knowledge.NewStore(resolveStoreConfig())
	if err != nil {
		return err
	}
	defer store.Close()

	return store.ExportRun(cmd.Context(), args[0], os.Stdout)
}

func init() {
	runsSearchCmd.Flags().Int("max-results", 20, "maximum number of search hits")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsSearchCmd)
	runsCmd.AddCommand(runsExportCmd)
	rootCmd.AddCommand(runsCmd)
}
