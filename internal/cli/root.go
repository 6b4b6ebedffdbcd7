// internal/cli/root.go
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mapnik-tools/mapnikdeps/pkg/core"
)

var (
	cfgFile  string
	prefix   string
	strategy string
	debug    bool
	config   *core.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "mapnikdeps",
	Short: "Prepare the Mapnik native-extension build environment",
	Long: `mapnikdeps - Mapnik dependency provisioner

Probes the host for Mapnik and its dependency chain (Boost, PROJ,
HarfBuzz, GDAL), installs what it can through the system package
manager, and builds the rest from source in dependency order so a
native-extension build can link against libmapnik afterwards.`,
	Version: "0.2.0",
}

// Execute executes the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/mapnikdeps/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&prefix, "prefix", "", "install prefix for source-built dependencies")
	rootCmd.PersistentFlags().StringVar(&strategy, "strategy", "", "package manager to use (apt, dnf, brew)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	// Add commands
	rootCmd.AddCommand(provisionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	var err error
	config, err = core.LoadConfig(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		config = core.DefaultConfig()
	}

	// Override config with flags
	if prefix != "" {
		config.Prefix = prefix
	}
	if strategy != "" {
		config.Strategy = strategy
	}
	if debug {
		config.Debug = true
	}
}
