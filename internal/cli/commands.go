package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/graphweave/graphweave/internal/analyzer"
	"github.com/graphweave/graphweave/internal/engine"
	"github.com/spf13/cobra"
)

// newEngine wires config, database, and analyzer for one CLI invocation.
func newEngine() (*engine.Engine, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	db, err := openDB(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open db: %w", err)
	}
	an, err := analyzer.New(cfg.Analyzer)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("build analyzer: %w", err)
	}
	eng := engine.New(db, an, cfg)
	return eng, func() { db.Close() }, nil
}

// --- add command ---

var addTags []string

var addCmd = &cobra.Command{
	Use:   "add [text]",
	Short: "Ingest a memory",
	Long:  "Extract entities and relationships from the text and weave them into the graph.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAdd,
}

func runAdd(cmd *cobra.Command, args []string) error {
	eng, done, err := newEngine()
	if err != nil {
		return err
	}
	defer done()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	id, err := eng.AddMemory(ctx, strings.Join(args, " "), addTags)
	if err != nil {
		return fmt.Errorf("add memory: %w", err)
	}

	fmt.Printf("stored %s\n", id)
	return nil
}

// --- query command ---

var queryLimit int

var queryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Query memories",
	Long:  "Rank stored memories against the query by lexical similarity, entity overlap, and importance.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runQuery,
}

func runQuery(cmd *cobra.Command, args []string) error {
	eng, done, err := newEngine()
	if err != nil {
		return err
	}
	defer done()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	results, err := eng.QueryMemory(ctx, strings.Join(args, " "), queryLimit)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("No relevant memories found.")
		return nil
	}

	for i, r := range results {
		fmt.Printf("%d. [%.3f] %s\n", i+1, r.Score, r.Memory.ID)
		content := r.Memory.Content
		if len(content) > 120 {
			content = content[:120] + "..."
		}
		fmt.Printf("   %s\n", content)
		if len(r.MatchedEntities) > 0 {
			fmt.Printf("   entities: %s\n", strings.Join(r.MatchedEntities, ", "))
		}
		fmt.Println()
	}
	return nil
}

// --- explore command ---

var exploreCmd = &cobra.Command{
	Use:   "explore [name]",
	Short: "Explore an entity's neighborhood",
	Long:  "Show the entity's direct neighbors with relation labels and edge weights.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runExplore,
}

func runExplore(cmd *cobra.Command, args []string) error {
	eng, done, err := newEngine()
	if err != nil {
		return err
	}
	defer done()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	name := strings.Join(args, " ")
	network, err := eng.ExploreEntity(ctx, name)
	if err != nil {
		return fmt.Errorf("explore: %w", err)
	}

	if network.Entity == nil {
		fmt.Printf("No entity found for %q.\n", name)
		return nil
	}

	fmt.Printf("%s (%s), %d mentions\n", network.Entity.Name, network.Entity.Type, network.Entity.MentionCount)
	if len(network.Neighbors) == 0 {
		fmt.Println("  no relationships")
		return nil
	}
	for _, n := range network.Neighbors {
		arrow := "<--"
		if n.Outbound {
			arrow = "-->"
		}
		fmt.Printf("  %s [%s %.2f] %s (%s)\n", arrow, n.Label, n.Weight, n.Name, n.Type)
	}
	return nil
}

// --- stats command ---

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show graph statistics",
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	eng, done, err := newEngine()
	if err != nil {
		return err
	}
	defer done()

	stats, err := eng.Stats()
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}

	fmt.Printf("entities:      %d\n", stats.Entities)
	fmt.Printf("relationships: %d\n", stats.Relationships)
	fmt.Printf("memories:      %d\n", stats.Memories)
	fmt.Printf("db:            %s\n", eng.DB.Path)
	return nil
}

// --- rescore command ---

var rescoreCmd = &cobra.Command{
	Use:   "rescore",
	Short: "Recompute importance scores",
	Long:  "Recompute every memory's importance from current mention counts, relations, and access recency.",
	RunE:  runRescore,
}

func runRescore(cmd *cobra.Command, args []string) error {
	eng, done, err := newEngine()
	if err != nil {
		return err
	}
	defer done()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	updated, err := eng.Rescore(ctx)
	if err != nil {
		return fmt.Errorf("rescore: %w", err)
	}

	fmt.Printf("rescored %d memories\n", updated)
	return nil
}
