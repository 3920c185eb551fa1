// Package cli provides the prokb command line interface.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/prokb/internal/adapters/driving/mcp"
	"github.com/custodia-labs/prokb/internal/core/ports/driving"
	"github.com/custodia-labs/prokb/internal/logger"
)

// annotationNoServices marks commands that run without the service graph.
const annotationNoServices = "prokb/no-services"

// Options carries global flag values to the service factory.
type Options struct {
	// ConfigDir overrides the directory holding config.toml.
	ConfigDir string

	// DataDir overrides storage.data_dir.
	DataDir string
}

// Services holds the ports the commands drive.
type Services struct {
	Search    driving.SearchService
	Ingest    driving.IngestionService
	Settings  driving.SettingsService
	Scheduler driving.Scheduler

	// Channels lists catalog channels. Optional.
	Channels mcp.ChannelIndex

	// SnippetChars truncates excerpts in formatted output.
	SnippetChars int

	// Close releases resources held by the services. Optional.
	Close func() error
}

// Factory builds the services for one command invocation.
type Factory func(opts Options) (*Services, error)

var (
	version = "dev"

	verbose   bool
	configDir string
	dataDir   string

	factory  Factory
	closeFns []func() error
)

// Driving ports used by the commands. Set by the factory or by tests.
var (
	searchService   driving.SearchService
	ingestService   driving.IngestionService
	settingsService driving.SettingsService
	scheduler       driving.Scheduler
	channelIndex    mcp.ChannelIndex
	snippetChars    int
)

var rootCmd = &cobra.Command{
	Use:   "prokb",
	Short: "Pro content knowledge base",
	Long: `prokb ingests transcripts of professional players' videos into a local
semantic index and answers strategy questions with cited, timestamped excerpts.

Run 'prokb ingest' to build the knowledge base, then 'prokb search' or
'prokb mcp serve' to query it.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "directory holding config.toml (default ~/.prokb)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory (overrides storage.data_dir)")
}

// Execute runs the root command. The factory is invoked once, before the
// selected command runs, unless the command needs no services.
func Execute(ctx context.Context, v string, f Factory) error {
	if v != "" {
		version = v
	}
	factory = f
	defer closeServices()
	return rootCmd.ExecuteContext(ctx)
}

// setup wires services for the selected command.
func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if factory == nil || cmd.Annotations[annotationNoServices] == "true" {
		return nil
	}

	svc, err := factory(Options{ConfigDir: configDir, DataDir: dataDir})
	if err != nil {
		return err
	}
	useServices(svc)
	return nil
}

// useServices installs svc as the ports the commands call.
func useServices(svc *Services) {
	searchService = svc.Search
	ingestService = svc.Ingest
	settingsService = svc.Settings
	scheduler = svc.Scheduler
	channelIndex = svc.Channels
	snippetChars = svc.SnippetChars
	if svc.Close != nil {
		closeFns = append(closeFns, svc.Close)
	}
}

func closeServices() {
	for i := len(closeFns) - 1; i >= 0; i-- {
		if err := closeFns[i](); err != nil {
			logger.Warn("Closing services: %v", err)
		}
	}
	closeFns = nil
}

// errNotConfigured reports a command run without its service.
func errNotConfigured(name string) error {
	return errors.New(name + " service not configured")
}
