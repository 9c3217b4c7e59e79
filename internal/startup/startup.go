package startup

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"image-gallery/internal/database"
	"image-gallery/internal/logging"
	"image-gallery/internal/workers"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// Config holds all application configuration
type Config struct {
	RootDir          string
	DatabaseDir      string
	Port             string
	MetricsPort      string
	IndexInterval    time.Duration
	ExtractWorkers   int
	SessionCacheSize int
	AllowParentDir   bool
	LogStaticFiles   bool
	LogHealthChecks  bool
	MetricsEnabled   bool
	SSLCert          string
	SSLKey           string
	CORSOrigins      []string

	// Derived paths
	DatabasePath string
}

// TLSEnabled reports whether both a certificate and a key are configured.
func (c *Config) TLSEnabled() bool {
	return c.SSLCert != "" && c.SSLKey != ""
}

// LoadConfig loads and validates configuration from environment variables.
// A .env file in the working directory is read first; variables already set
// in the environment win.
func LoadConfig() (*Config, error) {
	dotenvLoaded := loadDotEnv(".env")

	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")
	if dotenvLoaded {
		logging.Info("  Loaded .env file")
	}

	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}

	rootDir := getEnv("GALLERY_ROOT_DIR", wd)
	databaseDir := getEnv("DATABASE_DIR", rootDir)
	port := getEnv("PORT", "4860")
	metricsPort := getEnv("METRICS_PORT", "9090")
	indexIntervalStr := getEnv("INDEX_INTERVAL", "0")
	extractWorkers := getEnvInt("EXTRACT_WORKERS", workers.DefaultExtractLimit)
	sessionCacheSize := getEnvInt("SESSION_CACHE_SIZE", 1024)
	allowParent := getEnvBool("GALLERY_ALLOW_PARENT_DIR_ACCESS", false)
	logStaticFiles := getEnvBool("LOG_STATIC_FILES", false)
	logHealthChecks := getEnvBool("LOG_HEALTH_CHECKS", true)
	metricsEnabled := getEnvBool("METRICS_ENABLED", true)
	sslCert := getEnv("GALLERY_SSL_CERT", "")
	sslKey := getEnv("GALLERY_SSL_KEY", "")
	corsOrigins := getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"})

	logging.Info("  GALLERY_ROOT_DIR:                %s", rootDir)
	logging.Info("  DATABASE_DIR:                    %s", databaseDir)
	logging.Info("  PORT:                            %s", port)
	logging.Info("  METRICS_PORT:                    %s", metricsPort)
	logging.Info("  METRICS_ENABLED:                 %v", metricsEnabled)
	logging.Info("  INDEX_INTERVAL:                  %s", indexIntervalStr)
	logging.Info("  EXTRACT_WORKERS:                 %d", extractWorkers)
	logging.Info("  SESSION_CACHE_SIZE:              %d", sessionCacheSize)
	logging.Info("  GALLERY_ALLOW_PARENT_DIR_ACCESS: %v", allowParent)
	logging.Info("  LOG_STATIC_FILES:                %v", logStaticFiles)
	logging.Info("  LOG_HEALTH_CHECKS:               %v", logHealthChecks)
	logging.Info("  CORS_ALLOWED_ORIGINS:            %s", strings.Join(corsOrigins, ","))
	logging.Info("  LOG_LEVEL:                       %s", logging.GetLevel())

	indexInterval := parseInterval(indexIntervalStr)

	if (sslCert == "") != (sslKey == "") {
		logging.Warn("  Only one of GALLERY_SSL_CERT and GALLERY_SSL_KEY is set, serving plain HTTP")
	}

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	rootDir, err = filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root directory path: %w", err)
	}
	logging.Info("  Root directory (absolute): %s", rootDir)

	databaseDir, err = filepath.Abs(databaseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database directory path: %w", err)
	}
	logging.Info("  Database directory (absolute): %s", databaseDir)

	if err := checkRootDirectory(rootDir); err != nil {
		return nil, fmt.Errorf("root directory error: %w", err)
	}

	if err := ensureDirectory(databaseDir); err != nil {
		return nil, fmt.Errorf("database directory error: %w", err)
	}

	logging.Debug("  Testing database directory write access...")
	if err := testWriteAccess(databaseDir); err != nil {
		return nil, fmt.Errorf("database directory is not writable (required for database): %w", err)
	}
	logging.Info("  [OK] Database directory is writable")

	config := &Config{
		RootDir:          rootDir,
		DatabaseDir:      databaseDir,
		Port:             port,
		MetricsPort:      metricsPort,
		IndexInterval:    indexInterval,
		ExtractWorkers:   extractWorkers,
		SessionCacheSize: sessionCacheSize,
		AllowParentDir:   allowParent,
		LogStaticFiles:   logStaticFiles,
		LogHealthChecks:  logHealthChecks,
		MetricsEnabled:   metricsEnabled,
		SSLCert:          sslCert,
		SSLKey:           sslKey,
		CORSOrigins:      corsOrigins,
		DatabasePath:     filepath.Join(databaseDir, database.FileName),
	}

	logging.Info("")
	logging.Info("  Feature availability:")
	logging.Info("    Parent directory access: %s", enabledString(config.AllowParentDir))
	logging.Info("    Periodic reconcile:      %s", enabledString(config.IndexInterval > 0))
	logging.Info("    TLS:                     %s", enabledString(config.TLSEnabled()))
	logging.Info("    Metrics:                 %s", enabledString(config.MetricsEnabled))

	return config, nil
}

// loadDotEnv reads path into the environment without overriding variables
// that are already set. It reports whether a file was loaded.
func loadDotEnv(path string) bool {
	if _, err := os.Stat(path); err != nil {
		return false
	}
	if err := godotenv.Load(path); err != nil {
		logging.Warn("Failed to load %s: %v", path, err)
		return false
	}
	return true
}

// parseInterval accepts a Go duration or a bare number of seconds. Invalid
// and negative values disable periodic runs.
func parseInterval(s string) time.Duration {
	if secs, err := strconv.Atoi(s); err == nil {
		if secs < 0 {
			secs = 0
		}
		return time.Duration(secs) * time.Second
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		logging.Warn("  Invalid INDEX_INTERVAL %q, periodic reconcile disabled", s)
		return 0
	}
	return d
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

// LogDatabaseInit logs database initialization
func LogDatabaseInit(duration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DATABASE INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  [OK] Database initialized in %v", duration)
}

// LogIndexerInit logs indexer initialization
func LogIndexerInit(interval time.Duration, extractWorkers int) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("INDEXER INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	if interval > 0 {
		logging.Info("  Reconcile interval: %v", interval)
	} else {
		logging.Info("  Reconcile interval: startup and on demand only")
	}
	logging.Info("  Extraction workers: %d", extractWorkers)
	logging.Info("  Starting indexer...")
}

// LogIndexerStarted logs successful indexer start
func LogIndexerStarted() {
	logging.Info("  [OK] Indexer started")
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			// prefix-only routes such as the file fallback have no template
			pathTemplate, err = route.GetPathRegexp()
			if err != nil {
				return nil
			}
		}

		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   route.GetName(),
			})
		}
		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes dynamically
func LogHTTPRoutes(router *mux.Router, logStaticFiles, logHealthChecks bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}

		logging.Debug("  Registered routes (%d total):", len(routes))
		logging.Debug("")

		groups := make(map[string][]RouteInfo)
		for _, route := range routes {
			prefix := getRouteGroup(route.Path)
			groups[prefix] = append(groups[prefix], route)
		}

		groupKeys := make([]string, 0, len(groups))
		for k := range groups {
			groupKeys = append(groupKeys, k)
		}
		sort.Strings(groupKeys)

		for _, group := range groupKeys {
			if group != "" {
				logging.Debug("  [%s]", group)
			} else {
				logging.Debug("  [root]")
			}
			for _, route := range groups[group] {
				logging.Debug("    %-6s %s", route.Method, route.Path)
			}
			logging.Debug("")
		}
	}

	logging.Info("  HTTP logging enabled")
	if logStaticFiles {
		logging.Info("    Image request logging: ON")
	} else {
		logging.Info("    Image request logging: OFF (set LOG_STATIC_FILES=true to enable)")
	}
	if logHealthChecks {
		logging.Info("    Health check logging: ON")
	} else {
		logging.Info("    Health check logging: OFF (set LOG_HEALTH_CHECKS=true to enable)")
	}
}

// getRouteGroup extracts a group name from a route path
func getRouteGroup(path string) string {
	path = strings.TrimPrefix(path, "/")

	parts := strings.SplitN(path, "/", 2)
	first := parts[0]

	if first == "api" && len(parts) > 1 {
		subParts := strings.SplitN(parts[1], "/", 2)
		return "api/" + subParts[0]
	}

	return first
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	TLSEnabled      bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with all endpoint information
func LogServerStarted(config ServerConfig) {
	scheme := "http"
	if config.TLSEnabled {
		scheme = "https"
	}

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    Application:   %s://0.0.0.0:%s", scheme, config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://0.0.0.0:%s/metrics", config.MetricsPort)
	} else {
		logging.Info("    Metrics:       DISABLED")
	}
	logging.Info("")
	logging.Info("  Local access:")
	logging.Info("    Application:   %s://localhost:%s", scheme, config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://localhost:%s/metrics", config.MetricsPort)
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

func printBanner() {
	banner := `
------------------------------------------------------------
   ___                          ___      _ _
  |_ _|_ __ ___   __ _  __ _  / __|__ _| | |___ _ _ _  _
   | || '_ ' _ \ / _' |/ _' || (_ / _' | | / -_) '_| || |
  |___|_| |_| |_|\__,_|\__, | \___\__,_|_|_\___|_|  \_, |
                       |___/                        |__/
------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if logging.IsDebugEnabled() {
		logging.Debug("  Goroutines:      %d", runtime.NumGoroutine())
		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

// checkRootDirectory requires the library root to be an existing directory.
// The root is never created.
func checkRootDirectory(path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s does not exist", path)
	}
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}

	if logging.IsDebugEnabled() {
		if entries, err := os.ReadDir(path); err == nil {
			dirs := 0
			for _, e := range entries {
				if e.IsDir() {
					dirs++
				}
			}
			logging.Debug("    Contents: %d files, %d directories (top level)", len(entries)-dirs, dirs)
		}
	}
	return nil
}

func ensureDirectory(path string) error {
	logging.Debug("  Checking database directory: %s", path)

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		logging.Warn("Invalid positive integer for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

// getEnvList splits a comma-separated variable, dropping blank entries.
func getEnvList(key string, defaultValue []string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
