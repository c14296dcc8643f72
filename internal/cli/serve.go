package cli

import (
	"fmt"
	"log"
	"net/http"

	"github.com/TWRT/buildtrack/internal/api"
	"github.com/TWRT/buildtrack/internal/repository"
	"github.com/TWRT/buildtrack/internal/seed"
	"github.com/TWRT/buildtrack/internal/service"
	"github.com/spf13/cobra"
)

func newServeCmd(flags *globalFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the reference task API server",
		Long:  `Serve the task REST API from a local SQLite database. Intended for development and demos.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}
			if cfg.Token == "" {
				return errNoToken
			}

			db, err := repository.InitDB(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
			defer db.Close()

			router := api.SetupRouter(db, cfg.Token)

			log.Printf("database ready at %s", cfg.DBPath)
			log.Printf("serving task API on %s", cfg.Addr)
			log.Printf("  GET    /tasks, /tasks/analytics, /users")
			log.Printf("  POST   /tasks")
			log.Printf("  PUT    /tasks/{id}")
			log.Printf("  PATCH  /tasks/{id}/status")
			log.Printf("  DELETE /tasks/{id}")

			return http.ListenAndServe(cfg.Addr, router)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config)")
	return cmd
}

func newSeedCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <fixture.yaml>",
		Short: "Load users and tasks from a YAML fixture into the server database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}

			fixture, err := seed.LoadFile(args[0])
			if err != nil {
				return err
			}

			db, err := repository.InitDB(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
			defer db.Close()

			svc := service.NewTaskService(repository.NewTaskRepository(db), repository.NewUserRepository(db))
			res, err := seed.Apply(svc, fixture)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d users and %d tasks into %s\n", res.Users, res.Tasks, cfg.DBPath)
			return nil
		},
	}
}
