package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hermes-labs/keeper/internal/config"
	"github.com/hermes-labs/keeper/internal/engine"
	"github.com/hermes-labs/keeper/internal/store"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one decay pass over the chunk store",
	RunE:  runSweep,
}

func runSweep(cmd *cobra.Command, args []string) error {
	eng, db, err := openEngine()
	if err != nil {
		return err
	}
	defer db.Close()

	result := eng.Sweep()
	fmt.Printf("sweep: %d evicted, %d compressed\n", len(result.Evicted), len(result.Compressed))
	return nil
}

// openEngine opens the database and builds a loaded engine for one-shot
// commands.
func openEngine() (*engine.Engine, *store.DB, error) {
	cfg := config.Default()

	dbPath := cfg.Database.Path
	if p := os.Getenv("KEEPER_DB"); p != "" {
		dbPath = p
	}
	if dbPath == "" {
		var err error
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return nil, nil, fmt.Errorf("resolve db path: %w", err)
		}
	}

	db, err := store.Open(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	eng, err := engine.New(cfg, db)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("create engine: %w", err)
	}
	if err := eng.LoadFromDB(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("load working set: %w", err)
	}
	return eng, db, nil
}
