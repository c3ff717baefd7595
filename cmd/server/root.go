package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "mockforge",
		Short: "MockForge - configurable mock API server",
		Long: `MockForge is a configurable mock API server driven by declarative
route definitions. Routes are loaded from a JSON file and served with
fake-data templating, request validation, error and delay injection,
and optional CRUD persistence against an in-memory store.`,
	}
)

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ./config.yaml)")

	// Add subcommands
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(initCmd)
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		cwd, err := os.Getwd()
		if err != nil {
			cwd = "."
		}

		// Search config in current directory
		viper.AddConfigPath(cwd)
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match
	viper.SetEnvPrefix("MOCKFORGE")
	viper.AutomaticEnv()

	// Set defaults
	setDefaults()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// setDefaults sets the default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.port", 3000)
	viper.SetDefault("server.host", "0.0.0.0")

	// Route set defaults
	viper.SetDefault("routes.file", "./routes.json")
	viper.SetDefault("routes.seedCount", 5)

	// Delay injection defaults
	viper.SetDefault("delay.enabled", true)
	viper.SetDefault("delay.default", 0)
	viper.SetDefault("delay.min", 0)
	viper.SetDefault("delay.max", 5000)

	// Request log defaults
	viper.SetDefault("logs.maxEntries", 1000)

	// Version history defaults
	viper.SetDefault("versioning.maxVersions", 50)
}
