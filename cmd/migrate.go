package cmd

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync"

	"db-bridge/internal/catalog"
	"db-bridge/internal/conn"
	"db-bridge/internal/migrate"

	"github.com/gosuri/uiprogress"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	sourceName      string
	targetName      string
	migrateTables   []string
	batchSize       int
	truncateFirst   bool
	noCreate        bool
	keepConstraints bool
	targetSchema    string
	dryRun          bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate tables from a source to a target database",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		sourceCfg, err := GetConnConfig(sourceName)
		if err != nil {
			return err
		}
		targetCfg, err := GetConnConfig(targetName)
		if err != nil {
			return err
		}

		registry := conn.NewRegistry()
		defer registry.Close()

		sourceStatus, err := registry.Connect(ctx, *sourceCfg)
		if err != nil {
			return fmt.Errorf("source %q: %w", sourceName, err)
		}
		targetStatus, err := registry.Connect(ctx, *targetCfg)
		if err != nil {
			return fmt.Errorf("target %q: %w", targetName, err)
		}
		fmt.Printf("Connected: %s (%s) -> %s (%s)\n",
			sourceCfg.Name, sourceCfg.Driver, targetCfg.Name, targetCfg.Driver)

		service := migrate.NewService(registry)

		selection, err := resolveSelection(cmd, registry, sourceStatus.ID)
		if err != nil {
			return err
		}

		log.Println("Resolving foreign-key dependency order...")
		ordered, err := service.SortTablesByDependency(ctx, sourceStatus.ID, selection)
		if err != nil {
			return err
		}

		if dryRun {
			log.Println("[SIMULATION] Dry-Run Mode Active: No data will be written.")
			for i, t := range ordered {
				fmt.Printf("[%02d] %s\n", i+1, t)
			}
			return nil
		}

		options := migrate.DefaultOptions()
		options.TruncateBeforeInsert = truncateFirst
		options.CreateTableIfNotExists = !noCreate
		options.DisableConstraints = !keepConstraints
		if n := viper.GetInt("settings.batch_size"); n > 0 {
			options.BatchSize = n
		}
		if batchSize > 0 {
			options.BatchSize = batchSize
		}

		// First interrupt cancels cooperatively; the job stops at the next
		// batch boundary.
		interrupt := make(chan os.Signal, 1)
		signal.Notify(interrupt, os.Interrupt)
		defer signal.Stop(interrupt)
		go func() {
			<-interrupt
			log.Println("Interrupt received, cancelling migration...")
			if err := service.Cancel(); err != nil {
				log.Printf("Cancel failed: %v", err)
			}
		}()

		log.Printf("Starting migration of %d tables (batch size %d)...", len(ordered), options.BatchSize)

		emitter := migrate.NewEmitter(256)

		uiprogress.Start()
		bar := uiprogress.AddBar(len(ordered)).AppendCompleted().PrependElapsed()

		var mu sync.Mutex
		currentTable := ""
		currentRows := int64(0)
		type tableReport struct {
			name string
			rows int64
		}
		var completed []tableReport

		bar.PrependFunc(func(b *uiprogress.Bar) string {
			mu.Lock()
			defer mu.Unlock()
			return fmt.Sprintf("%-24s %10d rows", currentTable, currentRows)
		})

		consumerDone := make(chan struct{})
		go func() {
			defer close(consumerDone)
			for p := range emitter.Events() {
				mu.Lock()
				currentTable = p.TableName
				currentRows = p.RowsTransferred
				mu.Unlock()
				if p.Status == migrate.StatusComplete {
					completed = append(completed, tableReport{name: p.TableName, rows: p.RowsTransferred})
					bar.Set(p.CurrentTable)
				}
			}
		}()

		result, err := service.Start(ctx, migrate.Request{
			SourceID:             sourceStatus.ID,
			TargetID:             targetStatus.ID,
			Tables:               ordered,
			Options:              options,
			TargetSchemaOverride: targetSchema,
		}, emitter)

		<-consumerDone
		uiprogress.Stop()

		if err != nil {
			return err
		}

		fmt.Println("\nSummary Report (Dependency Order):")
		for i, r := range completed {
			fmt.Printf("[OK] [%02d/%02d] %-24s : %d rows\n", i+1, len(ordered), r.name, r.rows)
		}
		for _, e := range result.Errors {
			fmt.Printf("[!!] %s\n", e)
		}
		fmt.Println("--------------------------------------------------")
		fmt.Printf("Tables migrated: %d/%d\n", result.TablesMigrated, len(ordered))
		fmt.Printf("Total rows:      %d\n", result.TotalRows)
		log.Printf("Migration done! Time Elapsed: %s (success=%v)", result.Elapsed, result.Success)

		if !result.Success {
			return fmt.Errorf("%d table(s) failed", len(result.Errors))
		}
		return nil
	},
}

// resolveSelection returns the tables to migrate: the --tables flag, the
// config's settings.tables list, or every table on the source.
func resolveSelection(cmd *cobra.Command, registry *conn.Registry, sourceID string) ([]catalog.TableRef, error) {
	source, _ := registry.Pool(sourceID)

	names := migrateTables
	if len(names) == 0 {
		names = viper.GetStringSlice("settings.tables")
	}

	if len(names) == 0 {
		all, err := catalog.ListTables(cmd.Context(), source.DB, source.Dialect)
		if err != nil {
			return nil, err
		}
		if len(all) == 0 {
			return nil, fmt.Errorf("no tables found on source")
		}
		return all, nil
	}

	refs := make([]catalog.TableRef, 0, len(names))
	for _, n := range names {
		ref, err := parseTableRef(n, source.Dialect.DefaultSchema())
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// parseTableRef accepts "schema.table" or a bare table name, which picks
// up the dialect's default schema.
func parseTableRef(s, defaultSchema string) (catalog.TableRef, error) {
	parts := strings.SplitN(s, ".", 2)
	if len(parts) == 2 {
		return catalog.TableRef{Schema: parts[0], Name: parts[1]}, nil
	}
	if defaultSchema == "" {
		return catalog.TableRef{}, fmt.Errorf("table %q must be schema-qualified for this driver", s)
	}
	return catalog.TableRef{Schema: defaultSchema, Name: s}, nil
}

func init() {
	RootCmd.AddCommand(migrateCmd)

	migrateCmd.Flags().StringVar(&sourceName, "source", "", "Source connection name (from config)")
	migrateCmd.Flags().StringVar(&targetName, "target", "", "Target connection name (from config)")
	migrateCmd.Flags().StringSliceVarP(&migrateTables, "tables", "t", []string{}, "Tables to migrate, schema.table (default: all)")
	migrateCmd.Flags().IntVar(&batchSize, "batch-size", 0, "Rows per batch (overrides config)")
	migrateCmd.Flags().BoolVar(&truncateFirst, "truncate", false, "Truncate target tables before inserting")
	migrateCmd.Flags().BoolVar(&noCreate, "no-create", false, "Do not create missing target tables")
	migrateCmd.Flags().BoolVar(&keepConstraints, "keep-constraints", false, "Leave target constraints/triggers enabled during load")
	migrateCmd.Flags().StringVar(&targetSchema, "target-schema", "", "Override the target schema for all tables")
	migrateCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the resolved order without writing")

	migrateCmd.MarkFlagRequired("source")
	migrateCmd.MarkFlagRequired("target")

	viper.BindPFlag("settings.batch_size", migrateCmd.Flags().Lookup("batch-size"))
	viper.SetDefault("settings.batch_size", 1000)
}
