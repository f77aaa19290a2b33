package main

import (
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bdwyertech/mussels/internal/logging"
)

var logFile *os.File

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringP("cookbook", "c", "", "Cookbook to resolve the reference against (default: local)")
	rootCmd.PersistentFlags().StringP("target", "t", "", "Target platform, e.g. linux/amd64 (default: host platform)")
	rootCmd.PersistentFlags().BoolP("verbose", "V", false, "Enable debug logging")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored log output")
	rootCmd.PersistentFlags().String("data-dir", "", "Data directory (default: ~/.mussels)")

	viper.BindPFlags(rootCmd.PersistentFlags())
	viper.SetEnvPrefix("mussels")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "mussels",
	Short: "A dependency-aware, multi-cookbook native build orchestrator",
	Long: `mussels resolves, plans, and builds native software components
from declarative recipes spread across one or more cookbooks.

It discovers a recipe's transitive dependencies and required tools,
pins a single consistent version per name, batches the work into
parallelizable layers, verifies the host toolchain, and drives each
recipe through download/extract/build/install.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Called by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func initConfig() {
	f, err := logging.Setup(resolvedDataDir(), viper.GetBool("verbose"), viper.GetBool("no-color"))
	if err != nil {
		log.Warnf("opening log file: %v", err)
		return
	}
	logFile = f
}
