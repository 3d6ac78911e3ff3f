package cmd

import (
	"fmt"

	"db-bridge/internal/catalog"
	"db-bridge/internal/conn"
	"db-bridge/internal/migrate"

	"github.com/spf13/cobra"
)

var (
	tablesConn string
	sortTables bool
)

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "List tables on a connection",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := GetConnConfig(tablesConn)
		if err != nil {
			return err
		}

		registry := conn.NewRegistry()
		defer registry.Close()

		status, err := registry.Connect(ctx, *cfg)
		if err != nil {
			return fmt.Errorf("connection %q: %w", tablesConn, err)
		}

		pool, _ := registry.Pool(status.ID)
		tables, err := catalog.ListTables(ctx, pool.DB, pool.Dialect)
		if err != nil {
			return err
		}

		if sortTables {
			service := migrate.NewService(registry)
			tables, err = service.SortTablesByDependency(ctx, status.ID, tables)
			if err != nil {
				return err
			}
			fmt.Printf("%d tables on %s (dependency order):\n", len(tables), cfg.Name)
		} else {
			fmt.Printf("%d tables on %s:\n", len(tables), cfg.Name)
		}

		for i, t := range tables {
			fmt.Printf("[%02d] %s\n", i+1, t)
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(tablesCmd)

	tablesCmd.Flags().StringVar(&tablesConn, "conn", "", "Connection name (from config)")
	tablesCmd.Flags().BoolVar(&sortTables, "sort", false, "Order by foreign-key dependencies")

	tablesCmd.MarkFlagRequired("conn")
}
