package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mockforge/mockforge/internal/api"
	"github.com/mockforge/mockforge/internal/config"
	"github.com/mockforge/mockforge/internal/generator"
	"github.com/mockforge/mockforge/internal/logs"
	"github.com/mockforge/mockforge/internal/plugin"
	"github.com/mockforge/mockforge/internal/routes"
	"github.com/mockforge/mockforge/internal/stats"
	"github.com/mockforge/mockforge/internal/storage"
	"github.com/mockforge/mockforge/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MockForge server",
	Long: `Starts the MockForge mock API server.

The server will:
  - Load route definitions from routes.json (seeding samples when absent)
  - Serve the configured mock routes with templating and persistence
  - Expose the Admin API at /api/admin/

Configuration is loaded from config.yaml in the current directory,
or specify a custom config file with the --config flag.`,
	RunE: runServe,
}

var (
	portFlag       int
	routesFileFlag string
)

func init() {
	serveCmd.Flags().IntVarP(&portFlag, "port", "p", 0, "Override server port")
	serveCmd.Flags().StringVarP(&routesFileFlag, "routes", "r", "", "Override routes file path")

	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("routes.file", serveCmd.Flags().Lookup("routes"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := configFromViper()

	if portFlag > 0 {
		cfg.Server.Port = portFlag
	}
	if routesFileFlag != "" {
		cfg.Routes.File = routesFileFlag
	}

	// Resolve relative routes file path to absolute
	routesFile := cfg.Routes.File
	if routesFile != "" && !filepath.IsAbs(routesFile) {
		cwd, err := os.Getwd()
		if err == nil {
			routesFile = filepath.Join(cwd, routesFile)
		}
	}
	log.Printf("Using routes file: %s", routesFile)

	// Initialize fake data generator
	gen := generator.New()

	// Initialize in-memory storage
	store := storage.NewManager(gen)

	// Initialize statistics collector
	statsCollector := stats.NewCollector()

	// Initialize request log service
	logService := logs.NewService(cfg.Logs.MaxEntries)

	// Initialize version controller
	versions := version.NewController(cfg.Versioning.MaxVersions)

	// Initialize plugin registry
	plugins := plugin.NewRegistry()
	if token := viper.GetString("plugins.auth.token"); token != "" {
		prefixes := viper.GetStringSlice("plugins.auth.protectedPrefixes")
		plugins.Register(&plugin.AuthPlugin{Token: token, ProtectedPrefixes: prefixes})
		log.Printf("Auth plugin enabled for %d prefix(es)", len(prefixes))
	}

	// Initialize route engine
	mockEngine := routes.NewEngine(store, gen, statsCollector, plugins,
		routes.WithSeedCount(cfg.Routes.SeedCount),
		routes.WithDelayConfig(cfg.Delay),
	)

	// Load routes, falling back to built-in samples
	defs, err := routes.LoadOrSeed(routesFile)
	if err != nil {
		log.Printf("Warning: %v", err)
	}
	report := mockEngine.Load(defs)
	log.Printf("Loaded %d route(s) (%d failed, %d duplicate(s))", report.Loaded, report.Failed, report.Duplicates)

	// Snapshot the initial route set
	if _, err := versions.Save(mockEngine.Routes(), "Initial route set"); err != nil {
		log.Printf("Warning: failed to snapshot initial routes: %v", err)
	}

	// Setup router
	router := api.NewRouter(mockEngine, store, logService, statsCollector, versions, routesFile)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting MockForge server on %s", addr)
		log.Printf("Admin API available at http://%s/api/admin/", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
	return nil
}

// configFromViper assembles the typed configuration from viper state.
func configFromViper() *config.Config {
	cfg := config.Default()

	cfg.Server.Port = viper.GetInt("server.port")
	cfg.Server.Host = viper.GetString("server.host")
	cfg.Routes.File = viper.GetString("routes.file")
	cfg.Routes.SeedCount = viper.GetInt("routes.seedCount")
	cfg.Delay.Enabled = viper.GetBool("delay.enabled")
	cfg.Delay.Default = viper.GetInt("delay.default")
	cfg.Delay.Min = viper.GetInt("delay.min")
	cfg.Delay.Max = viper.GetInt("delay.max")
	cfg.Logs.MaxEntries = viper.GetInt("logs.maxEntries")
	cfg.Versioning.MaxVersions = viper.GetInt("versioning.maxVersions")

	return cfg
}
