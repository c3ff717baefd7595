package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mockforge/mockforge/internal/routes"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize MockForge with default configuration and sample routes",
	Long: `Creates the default configuration file (config.yaml) and a routes.json
seeded with the built-in sample routes.

If config.yaml already exists, it will not be overwritten unless --force is used.`,
	RunE: runInit,
}

var (
	initForce bool
	initPath  string
)

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite existing files")
	initCmd.Flags().StringVarP(&initPath, "path", "p", ".", "Path where to initialize (default: current directory)")
}

func runInit(cmd *cobra.Command, args []string) error {
	absPath, err := filepath.Abs(initPath)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	configFile := filepath.Join(absPath, "config.yaml")
	routesFile := filepath.Join(absPath, "routes.json")

	if _, err := os.Stat(configFile); err == nil && !initForce {
		return fmt.Errorf("config.yaml already exists. Use --force to overwrite")
	}

	if err := os.MkdirAll(absPath, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", absPath, err)
	}

	// Create default config
	config := map[string]interface{}{
		"server": map[string]interface{}{
			"port": 3000,
			"host": "0.0.0.0",
		},
		"routes": map[string]interface{}{
			"file":      "./routes.json",
			"seedCount": 5,
		},
		"delay": map[string]interface{}{
			"enabled": true,
			"default": 0,
			"min":     0,
			"max":     5000,
		},
		"logs": map[string]interface{}{
			"maxEntries": 1000,
		},
		"versioning": map[string]interface{}{
			"maxVersions": 50,
		},
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to generate config: %w", err)
	}

	header := `# MockForge Configuration

`
	if err := os.WriteFile(configFile, []byte(header+string(data)), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	fmt.Printf("Created config file: %s\n", configFile)

	// Seed routes.json with the built-in samples
	if _, err := os.Stat(routesFile); err != nil || initForce {
		if err := routes.SaveFile(routesFile, routes.SampleRoutes()); err != nil {
			return fmt.Errorf("failed to write routes file: %w", err)
		}
		fmt.Printf("Created routes file: %s\n", routesFile)
	}

	fmt.Println()
	fmt.Println("Initialization complete! You can now start the server with:")
	fmt.Println()
	fmt.Printf("  cd %s\n", absPath)
	fmt.Println("  mockforge serve")
	fmt.Println()

	return nil
}
