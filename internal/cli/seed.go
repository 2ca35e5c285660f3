package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"geoquiz/internal/config"
	"geoquiz/internal/domain"
	"github.com/spf13/cobra"
)

// NewSeedCmd loads a countries JSON file into the Postgres catalog table.
func NewSeedCmd(configPath *string) *cobra.Command {
	var dataPath string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the country catalog into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), *configPath, dataPath)
		},
	}
	cmd.Flags().StringVar(&dataPath, "data", "data/countries.json", "path to countries JSON")
	return cmd
}

func runSeed(ctx context.Context, configPath, dataPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}

	raw, err := os.ReadFile(dataPath)
	if err != nil {
		return err
	}
	var countries []domain.Country
	if err := json.Unmarshal(raw, &countries); err != nil {
		return fmt.Errorf("parse %s: %w", dataPath, err)
	}
	if len(countries) == 0 {
		return fmt.Errorf("%s contains no countries", dataPath)
	}

	db := openBunDB(cfg.Postgres.URL)
	defer db.Close()

	for _, c := range countries {
		id := c.Code
		if id == "" {
			id = c.Name
		}
		data, err := json.Marshal(c)
		if err != nil {
			return err
		}
		_, err = db.ExecContext(ctx,
			`INSERT INTO countries (id, data) VALUES (?, ?::jsonb) ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data`,
			id, string(data),
		)
		if err != nil {
			return fmt.Errorf("seed %s: %w", id, err)
		}
	}
	log.Printf("seeded %d countries", len(countries))
	return nil
}
