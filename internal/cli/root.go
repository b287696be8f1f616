package cli

import (
	"os"

	"github.com/graphweave/graphweave/internal/config"
	"github.com/graphweave/graphweave/internal/store"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "graphweave",
	Short: "Contextual memory graph engine",
	Long:  "Graphweave ingests free text into a weighted knowledge graph and answers relevance-ranked queries against it. Single Go binary, local SQLite storage.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(exploreCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(rescoreCmd)
	rootCmd.AddCommand(serveCmd)

	addCmd.Flags().StringSliceVarP(&addTags, "tag", "t", nil, "Tag the memory (repeatable)")
	queryCmd.Flags().IntVarP(&queryLimit, "limit", "n", 0, "Maximum number of results (default from config)")
}

// loadConfig reads config from disk, honoring the GRAPHWEAVE_CONFIG override.
func loadConfig() (config.Config, error) {
	if path := os.Getenv("GRAPHWEAVE_CONFIG"); path != "" {
		return config.LoadFromPath(path)
	}
	return config.Load()
}

// openDB opens the database for CLI commands, honoring GRAPHWEAVE_DB and the
// configured path before falling back to the default location.
func openDB(cfg config.Config) (*store.DB, error) {
	dbPath := os.Getenv("GRAPHWEAVE_DB")
	if dbPath == "" {
		dbPath = cfg.Database.Path
	}
	if dbPath == "" {
		var err error
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return nil, err
		}
	}
	return store.Open(dbPath)
}
