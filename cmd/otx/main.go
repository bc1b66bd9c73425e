package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	charmLog "github.com/charmbracelet/log"

	"otx/internal/api"
	"otx/internal/config"
	"otx/internal/domain"
	"otx/internal/platform"
	"otx/internal/session"
	"otx/internal/tui"
)

// version stores a package-level helper value.
var version = "dev"

// program represents program data used by this package.
type program interface {
	Run() (tea.Model, error)
}

// programFactory stores a package-level helper value.
var programFactory = func(m tea.Model) program {
	return tea.NewProgram(m)
}

// main handles main.
func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// sessionBridge adapts the session store and the API client into the
// login surface the TUI consumes.
type sessionBridge struct {
	store  *session.Store
	client *api.Client
	logger *runtimeLogger
}

func (b *sessionBridge) Login(ctx context.Context, email, password string) (domain.User, error) {
	user, err := b.store.Login(ctx, b.client, email, password)
	if errors.Is(err, session.ErrNotPersisted) {
		// Logged in for this run; the session just will not survive a restart.
		b.logger.Warn("session persist failed", "err", err)
		return user, nil
	}
	return user, err
}

func (b *sessionBridge) Logout() error { return b.store.Logout() }

func (b *sessionBridge) Identity() (domain.User, bool) { return b.store.Identity() }

func (b *sessionBridge) Authenticated() bool { return b.store.Authenticated() }

// run runs the requested command flow.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	fs := flag.NewFlagSet("otx", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var (
		configPath string
		apiURL     string
		devMode    bool
		showVer    bool
	)
	defaultDevMode := version == "dev"
	if envDev, ok := parseBoolEnv("OTX_DEV_MODE"); ok {
		defaultDevMode = envDev
	}
	fs.StringVar(&configPath, "config", "", "path to config TOML")
	fs.StringVar(&apiURL, "api", "", "work-order API base URL")
	fs.BoolVar(&devMode, "dev", defaultDevMode, "use dev mode paths (otx-dev)")
	fs.BoolVar(&showVer, "version", false, "show version")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if showVer {
		_, _ = fmt.Fprintf(stdout, "otx %s\n", version)
		return nil
	}

	paths, err := platform.DefaultPathsWithOptions(platform.Options{DevMode: devMode})
	if err != nil {
		return err
	}

	command := firstArg(fs.Args())
	switch command {
	case "paths":
		_, _ = fmt.Fprintf(stdout, "dev_mode: %t\n", devMode)
		_, _ = fmt.Fprintf(stdout, "config: %s\n", paths.ConfigPath)
		_, _ = fmt.Fprintf(stdout, "data_dir: %s\n", paths.DataDir)
		_, _ = fmt.Fprintf(stdout, "session: %s\n", paths.SessionPath)
		return nil
	case "":
		// Continue.
	default:
		return fmt.Errorf("unknown command: %s", command)
	}

	if configPath == "" {
		if envPath := strings.TrimSpace(os.Getenv("OTX_CONFIG")); envPath != "" {
			configPath = envPath
		} else {
			configPath = paths.ConfigPath
		}
	}
	apiOverridden := strings.TrimSpace(apiURL) != ""
	if !apiOverridden {
		if envURL := strings.TrimSpace(os.Getenv("OTX_API_URL")); envURL != "" {
			apiURL = envURL
			apiOverridden = true
		}
	}

	cfg, err := config.Load(configPath, config.Default())
	if err != nil {
		return fmt.Errorf("load config %q: %w", configPath, err)
	}
	if apiOverridden {
		cfg.API.BaseURL = apiURL
	}

	logger, err := newRuntimeLogger(stderr, devMode, cfg.Logging, time.Now)
	if err != nil {
		return fmt.Errorf("configure runtime logger: %w", err)
	}
	// Keep TUI rendering clean: runtime logs stay in the dev-file sink while the client is active.
	logger.SetConsoleEnabled(false)
	defer func() {
		if closeErr := logger.Close(); closeErr != nil && logger.shouldLogToSink(logger.consoleSink) {
			_, _ = fmt.Fprintf(stderr, "warning: close runtime log sink: %v\n", closeErr)
		}
	}()

	logger.Info("startup configuration resolved", "dev_mode", devMode, "config_path", configPath)
	logger.Debug("runtime paths resolved", "data_dir", paths.DataDir, "session_path", paths.SessionPath)
	logger.Info("configuration loaded", "api_base_url", cfg.API.BaseURL, "log_level", cfg.Logging.Level)
	if devPath := logger.DevLogPath(); devPath != "" {
		logger.Info("dev file logging enabled", "path", devPath)
	}

	store := session.NewStore(paths.SessionPath)
	if err := store.Restore(); err != nil {
		logger.Warn("session restore failed", "session_path", paths.SessionPath, "err", err)
	}
	if identity, ok := store.Identity(); ok {
		logger.Info("session restored", "user", identity.Name, "role", identity.Role)
	}

	timeout, err := cfg.RequestTimeout()
	if err != nil {
		return fmt.Errorf("parse request timeout: %w", err)
	}
	pollInterval, err := cfg.PollInterval()
	if err != nil {
		return fmt.Errorf("parse poll interval: %w", err)
	}

	client := api.New(cfg.API.BaseURL, store, api.WithTimeout(timeout))
	logger.Debug("gateway initialized", "base_url", cfg.API.BaseURL, "timeout", timeout)

	m := tui.NewModel(
		client,
		&sessionBridge{store: store, client: client, logger: logger},
		tui.WithPollInterval(pollInterval),
		tui.WithLanguage(cfg.UI.Language),
		tui.WithTheme(cfg.UI.Theme),
		tui.WithLanguageSaver(func(language string) error {
			logger.Info("language update requested", "language", language, "config_path", configPath)
			if err := config.UpsertLanguage(configPath, language); err != nil {
				logger.Error("language update failed", "language", language, "err", err)
				return err
			}
			return nil
		}),
		tui.WithThemeSaver(func(theme string) error {
			logger.Info("theme update requested", "theme", theme, "config_path", configPath)
			if err := config.UpsertTheme(configPath, theme); err != nil {
				logger.Error("theme update failed", "theme", theme, "err", err)
				return err
			}
			return nil
		}),
	)
	logger.Info("starting tui program loop")
	_, err = programFactory(m).Run()
	if err != nil {
		logger.Error("tui program terminated with error", "err", err)
		return fmt.Errorf("run tui program: %w", err)
	}
	logger.Info("command flow complete", "command", "tui")
	return nil
}

// firstArg returns the leading positional argument, if any.
func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

// parseBoolEnv reads a boolean environment toggle.
func parseBoolEnv(name string) (bool, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}

// runtimeLogger fans log events to a styled console sink and an optional dev-file sink.
type runtimeLogger struct {
	sinks          []*charmLog.Logger
	consoleSink    *charmLog.Logger
	consoleEnabled bool
	closeFile      func() error
	devLog         string
}

// newRuntimeLogger configures runtime log sinks from CLI/config state.
func newRuntimeLogger(stderr io.Writer, devMode bool, cfg config.LoggingConfig, now func() time.Time) (*runtimeLogger, error) {
	level, err := charmLog.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parse logging level %q: %w", cfg.Level, err)
	}

	if now == nil {
		now = time.Now
	}
	if stderr == nil {
		stderr = io.Discard
	}

	consoleLogger := charmLog.NewWithOptions(stderr, charmLog.Options{
		Level:           level,
		Prefix:          "otx",
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       charmLog.TextFormatter,
	})

	logger := &runtimeLogger{
		sinks:          []*charmLog.Logger{consoleLogger},
		consoleSink:    consoleLogger,
		consoleEnabled: true,
	}
	if !devMode || !cfg.DevFile.Enabled {
		return logger, nil
	}

	devLogPath, err := devLogFilePath(cfg.DevFile.Dir, now().UTC())
	if err != nil {
		return nil, fmt.Errorf("resolve dev log file path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(devLogPath), 0o755); err != nil {
		return nil, fmt.Errorf("create dev log dir: %w", err)
	}
	logFile, err := os.OpenFile(devLogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open dev log file: %w", err)
	}

	// Keep file output parseable and unstyled while preserving styled console logs.
	fileLogger := charmLog.NewWithOptions(logFile, charmLog.Options{
		Level:           level,
		Prefix:          "otx",
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       charmLog.LogfmtFormatter,
	})
	logger.sinks = append(logger.sinks, fileLogger)
	logger.closeFile = logFile.Close
	logger.devLog = devLogPath
	return logger, nil
}

// DevLogPath returns the active dev log file path.
func (l *runtimeLogger) DevLogPath() string {
	if l == nil {
		return ""
	}
	return l.devLog
}

// Close closes the optional dev-file sink.
func (l *runtimeLogger) Close() error {
	if l == nil || l.closeFile == nil {
		return nil
	}
	return l.closeFile()
}

// SetConsoleEnabled toggles whether the console sink receives runtime events.
func (l *runtimeLogger) SetConsoleEnabled(enabled bool) {
	if l == nil {
		return
	}
	l.consoleEnabled = enabled
}

// shouldLogToSink reports whether one sink should receive runtime output.
func (l *runtimeLogger) shouldLogToSink(sink *charmLog.Logger) bool {
	if l == nil || sink == nil {
		return false
	}
	if sink == l.consoleSink && !l.consoleEnabled {
		return false
	}
	return true
}

// Debug logs a debug event to all configured sinks.
func (l *runtimeLogger) Debug(msg string, keyvals ...any) {
	if l == nil {
		return
	}
	for _, sink := range l.sinks {
		if !l.shouldLogToSink(sink) {
			continue
		}
		sink.Debug(msg, keyvals...)
	}
}

// Info logs an informational event to all configured sinks.
func (l *runtimeLogger) Info(msg string, keyvals ...any) {
	if l == nil {
		return
	}
	for _, sink := range l.sinks {
		if !l.shouldLogToSink(sink) {
			continue
		}
		sink.Info(msg, keyvals...)
	}
}

// Warn logs a warning event to all configured sinks.
func (l *runtimeLogger) Warn(msg string, keyvals ...any) {
	if l == nil {
		return
	}
	for _, sink := range l.sinks {
		if !l.shouldLogToSink(sink) {
			continue
		}
		sink.Warn(msg, keyvals...)
	}
}

// Error logs an error event to all configured sinks.
func (l *runtimeLogger) Error(msg string, keyvals ...any) {
	if l == nil {
		return
	}
	for _, sink := range l.sinks {
		if !l.shouldLogToSink(sink) {
			continue
		}
		sink.Error(msg, keyvals...)
	}
}

// devLogFilePath resolves a workspace-local dev log file path for the current run day.
func devLogFilePath(configDir string, now time.Time) (string, error) {
	baseDir := strings.TrimSpace(configDir)
	if baseDir == "" {
		baseDir = ".otx/log"
	}
	if !filepath.IsAbs(baseDir) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolve working dir: %w", err)
		}
		baseDir = filepath.Join(cwd, baseDir)
	}
	fileName := fmt.Sprintf("otx-%s.log", now.Format("20060102"))
	return filepath.Join(filepath.Clean(baseDir), fileName), nil
}
