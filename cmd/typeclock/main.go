// Package main provides the CLI entrypoint for typeclock.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/typeclock/internal/analytics"
	"github.com/verte-zerg/typeclock/internal/config"
	"github.com/verte-zerg/typeclock/internal/kv"
	"github.com/verte-zerg/typeclock/internal/logging"
	"github.com/verte-zerg/typeclock/internal/model"
	"github.com/verte-zerg/typeclock/internal/tui"
	"github.com/verte-zerg/typeclock/internal/wordsource"
)

const (
	defaultMode     = string(model.ModeWords)
	defaultDuration = 60
	defaultWords    = wordsource.DefaultWordCount
	defaultCaps     = 0.0
	defaultPunct    = 0.0
	defaultUser     = "default"
	defaultLogLevel = "info"
)

const defaultPunctSet = ".,!?;:"

var (
	globalUser     string
	globalDB       string
	globalLogLevel string
	globalConfig   string

	practiceMode       string
	practiceDuration   int
	practiceWords      int
	practiceTextFile   string
	practiceSample     int
	practiceDictionary string
	practiceCaps       float64
	practicePunct      float64
	practicePunctSet   string
	practiceSeed       int64
)

// settings is the merged view of environment and config file.
type settings struct {
	env  config.EnvConfig
	file config.FileConfig
}

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "typeclock",
		Short:         "Timed typing speed test",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPracticeCmd,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&globalUser, "user", "", "analytics user id (env TYPECLOCK_USER)")
	pf.StringVar(&globalDB, "db", "", "SQLite database path (env TYPECLOCK_DB)")
	pf.StringVar(&globalLogLevel, "log-level", "", "log level: debug, info, warn, error (env TYPECLOCK_LOG_LEVEL)")
	pf.StringVar(&globalConfig, "config", "", "config file path (env TYPECLOCK_CONFIG)")

	f := rootCmd.Flags()
	f.StringVar(&practiceMode, "mode", defaultMode, "test mode: words or custom")
	f.IntVar(&practiceDuration, "duration", defaultDuration, "test length in seconds (presets: 15, 30, 60, 120)")
	f.IntVar(&practiceWords, "words", defaultWords, "words generated up front in words mode")
	f.StringVar(&practiceTextFile, "text-file", "", "file with the custom text (custom mode)")
	f.IntVar(&practiceSample, "sample", 0, "use built-in sample text N as the custom text (see: typeclock samples)")
	f.StringVar(&practiceDictionary, "dictionary", "", "word list file, one word per line (default: built-in English)")
	f.Float64Var(&practiceCaps, "caps", defaultCaps, "probability of capitalized first letter (0-1)")
	f.Float64Var(&practicePunct, "punct", defaultPunct, "punctuation probability per word (0-1)")
	f.StringVar(&practicePunctSet, "punct-set", defaultPunctSet, "punctuation set")
	f.Int64Var(&practiceSeed, "seed", 0, "random seed for reproducible word lists")

	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newUsersCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newClearCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newSamplesCmd())

	return rootCmd
}

func loadSettings() (settings, error) {
	env, err := config.LoadEnv(".env")
	if err != nil {
		return settings{}, err
	}
	path := globalConfig
	if path == "" {
		path = env.ConfigFilePath()
	}
	file, err := config.LoadConfig(path)
	if err != nil {
		return settings{}, fmt.Errorf("failed to load config: %w", err)
	}
	return settings{env: env, file: file}, nil
}

func (s settings) logLevel() string {
	return config.Resolve(globalLogLevel, s.env.LogLevel, s.file.Log.Level, defaultLogLevel)
}

func (s settings) user() string {
	return config.Resolve(globalUser, s.env.User, s.file.Storage.User, defaultUser)
}

func (s settings) dbPath() string {
	return config.Resolve(globalDB, s.env.DB, s.file.Storage.DB, config.DefaultDBPath())
}

// openStore opens the SQLite backend and wraps it in an analytics store.
func openStore(s settings, logger *log.Logger) (*analytics.Store, func(), error) {
	path := s.dbPath()
	db, err := kv.OpenSQLite(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open db: %w", err)
	}
	logger.Debug("opened database", "path", path, "user", s.user())
	closeFn := func() {
		if cerr := db.Close(); cerr != nil {
			logger.Error("failed to close db", "err", cerr)
		}
	}
	return analytics.New(s.user(), db, analytics.WithLogger(logger)), closeFn, nil
}

func runPracticeCmd(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}
	p := s.file.Practice
	applyStringConfig(cmd, "mode", &practiceMode, p.Mode)
	applyIntConfig(cmd, "duration", &practiceDuration, p.Duration)
	applyIntConfig(cmd, "words", &practiceWords, p.Words)
	applyStringConfig(cmd, "text-file", &practiceTextFile, p.TextFile)
	applyStringConfig(cmd, "dictionary", &practiceDictionary, p.Dictionary)
	applyFloatConfig(cmd, "caps", &practiceCaps, p.CapsPct)
	applyFloatConfig(cmd, "punct", &practicePunct, p.PunctPct)
	applyStringConfig(cmd, "punct-set", &practicePunctSet, p.PunctSet)

	cfg := model.Config{
		Mode:            model.Mode(practiceMode),
		DurationSeconds: practiceDuration,
		Words:           practiceWords,
		CapsPct:         practiceCaps,
		PunctPct:        practicePunct,
		PunctSet:        practicePunctSet,
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}
	if cfg.Mode == model.ModeCustom {
		text, err := resolveCustomText()
		if err != nil {
			return err
		}
		cfg.CustomText = text
	}

	dict, err := loadDictionary(practiceDictionary)
	if err != nil {
		return err
	}

	logFile, logger, err := openUILogger(s.logLevel())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := logFile.Close(); cerr != nil {
			logErrf("failed to close log file: %v\n", cerr)
		}
	}()

	store, closeStore, err := openStore(s, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	genOpts := []wordsource.GeneratorOption{
		wordsource.WithCaps(cfg.CapsPct),
		wordsource.WithPunct(cfg.PunctPct, cfg.PunctSet),
	}
	if cmd.Flags().Changed("seed") {
		genOpts = append(genOpts, wordsource.WithSeed(practiceSeed))
	}
	gen := wordsource.NewGenerator(genOpts...)

	m, err := tui.NewModel(cfg, dict, gen, store, tui.WithLogger(logger))
	if err != nil {
		return err
	}
	logger.Info("practice started", "mode", cfg.Mode, "duration", cfg.DurationSeconds, "user", store.UserID())
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// openUILogger logs to a file because stderr is hidden behind the alternate screen.
func openUILogger(level string) (*os.File, *log.Logger, error) {
	path := config.DefaultLogPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, logging.New(f, level), nil
}

func resolveCustomText() (string, error) {
	if practiceSample > 0 {
		samples := wordsource.SampleTexts()
		if practiceSample > len(samples) {
			return "", fmt.Errorf("--sample must be between 1 and %d", len(samples))
		}
		return samples[practiceSample-1].Text, nil
	}
	if practiceTextFile == "" {
		return "", fmt.Errorf("custom mode needs --text-file or --sample")
	}
	data, err := os.ReadFile(practiceTextFile)
	if err != nil {
		return "", fmt.Errorf("failed to read custom text: %w", err)
	}
	text := string(data)
	if _, err := wordsource.ValidateCustomText(text); err != nil {
		return "", err
	}
	return text, nil
}

func loadDictionary(path string) ([]string, error) {
	if path == "" {
		return wordsource.Dictionary(), nil
	}
	words, err := wordsource.LoadWords(path, wordsource.FilterForLang("en"))
	if err != nil {
		return nil, fmt.Errorf("failed to load dictionary %s: %w", path, err)
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("dictionary %s has no usable words", path)
	}
	return words, nil
}

func validateConfig(cfg model.Config) error {
	if cfg.Mode != model.ModeWords && cfg.Mode != model.ModeCustom {
		return fmt.Errorf("--mode must be %q or %q", model.ModeWords, model.ModeCustom)
	}
	if cfg.DurationSeconds <= 0 {
		return fmt.Errorf("--duration must be > 0")
	}
	if cfg.Words <= 0 {
		return fmt.Errorf("--words must be > 0")
	}
	if cfg.CapsPct < 0 || cfg.CapsPct > 1 {
		return fmt.Errorf("--caps must be between 0 and 1")
	}
	if cfg.PunctPct < 0 || cfg.PunctPct > 1 {
		return fmt.Errorf("--punct must be between 0 and 1")
	}
	if cfg.PunctPct > 0 && strings.TrimSpace(cfg.PunctSet) == "" {
		return fmt.Errorf("--punct-set must not be empty")
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil || cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil || cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil || cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
