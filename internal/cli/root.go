package cli

import (
	"errors"
	"fmt"
	"log"

	"github.com/TWRT/buildtrack/internal/client"
	"github.com/TWRT/buildtrack/internal/client/taskapi"
	"github.com/TWRT/buildtrack/internal/config"
	"github.com/TWRT/buildtrack/internal/repository"
	"github.com/TWRT/buildtrack/internal/service"
	"github.com/spf13/cobra"
)

var errNoToken = errors.New("no API token configured. Set BUILDTRACK_TOKEN or pass --token")

type globalFlags struct {
	apiURL string
	token  string
}

// NewRootCmd builds the buildtrack command tree.
func NewRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:           "buildtrack",
		Short:         "Construction task board",
		Long:          `Buildtrack tracks construction tasks on a status board backed by the task API.`,
		Version:       "0.1.0",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&flags.apiURL, "api-url", "", "Task API base URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flags.token, "token", "", "Bearer token (overrides config)")

	rootCmd.AddCommand(
		newServeCmd(flags),
		newSeedCmd(flags),
		newTasksCmd(flags),
		newBoardCmd(flags),
	)
	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		return err
	}
	return nil
}

func (f *globalFlags) load() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if f.apiURL != "" {
		cfg.APIURL = f.apiURL
	}
	if f.token != "" {
		cfg.Token = f.token
	}
	return cfg, nil
}

// boardService connects a BoardService to the configured API. The returned
// close func releases the transition journal when one is configured.
func (f *globalFlags) boardService() (*service.BoardService, func(), error) {
	cfg, err := f.load()
	if err != nil {
		return nil, nil, err
	}
	apiClient, err := apiClientFor(cfg)
	if err != nil {
		return nil, nil, err
	}

	if cfg.JournalPath == "" {
		return service.NewBoardService(apiClient, nil), func() {}, nil
	}

	db, err := repository.InitDB(cfg.JournalPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open transition journal: %w", err)
	}
	journal := repository.NewTransitionRepository(db)
	closeFn := func() {
		if err := db.Close(); err != nil {
			log.Printf("close transition journal: %v", err)
		}
	}
	return service.NewBoardService(apiClient, journal), closeFn, nil
}

func apiClientFor(cfg *config.Config) (client.RemoteTaskService, error) {
	if cfg.Token == "" {
		return nil, errNoToken
	}
	return taskapi.NewTaskAPIClient(cfg.APIURL, cfg.Token), nil
}
