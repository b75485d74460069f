package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/typeclock/internal/analytics"
	"github.com/verte-zerg/typeclock/internal/config"
	"github.com/verte-zerg/typeclock/internal/logging"
	"github.com/verte-zerg/typeclock/internal/model"
	"github.com/verte-zerg/typeclock/internal/stats"
	"github.com/verte-zerg/typeclock/internal/wordsource"
)

const (
	defaultStatsPeriod = string(analytics.PeriodDaily)
	defaultStatsLimit  = 14
	defaultStatsRecent = 10
	defaultMissedTop   = 10
)

var (
	statsPeriod string
	statsLimit  int
	statsRecent int

	exportOut string
	clearYes  bool
)

// withStore loads settings, builds a stderr logger and opens the store for
// the duration of fn.
func withStore(fn func(ctx context.Context, st *analytics.Store, logger *log.Logger) error) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}
	logger := logging.New(os.Stderr, s.logLevel())
	st, closeStore, err := openStore(s, logger)
	if err != nil {
		return err
	}
	defer closeStore()
	return fn(context.Background(), st, logger)
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show personal bests, recent tests and progress",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsPeriod, "period", defaultStatsPeriod, "progress period: daily, weekly or monthly")
	cmd.Flags().IntVar(&statsLimit, "limit", defaultStatsLimit, "number of progress periods to show")
	cmd.Flags().IntVar(&statsRecent, "recent", defaultStatsRecent, "number of recent tests to list")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	cfg := model.StatsConfig{
		Period: statsPeriod,
		Limit:  statsLimit,
		Recent: statsRecent,
	}
	period, err := analytics.ParsePeriod(cfg.Period)
	if err != nil {
		return err
	}
	return withStore(func(ctx context.Context, st *analytics.Store, _ *log.Logger) error {
		out := cmd.OutOrStdout()
		if err := stats.RenderSummary(out, st.Query(ctx)); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		recent := st.RecentResults(ctx, cfg.Recent)
		if err := stats.RenderRecent(out, recent); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		points, err := st.ProgressSeries(ctx, period, cfg.Limit)
		if err != nil {
			return err
		}
		if err := stats.RenderProgress(out, period, points, 0, 0, stats.UseColor(out)); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		missed := stats.TopMissedWords(st.RecentResults(ctx, 0), defaultMissedTop)
		if err := stats.RenderMissedWords(out, missed); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	})
}

func newUsersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List users with stored analytics",
		Args:  cobra.NoArgs,
		RunE:  runUsersCmd,
	}
}

func runUsersCmd(cmd *cobra.Command, _ []string) error {
	return withStore(func(ctx context.Context, st *analytics.Store, _ *log.Logger) error {
		users, err := st.Users(ctx)
		if err != nil {
			return err
		}
		records := make([]analytics.Record, 0, len(users))
		for _, id := range users {
			records = append(records, st.ForUser(id).Query(ctx))
		}
		if err := stats.RenderUsers(cmd.OutOrStdout(), st.UserID(), records); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	})
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export analytics as JSON",
		Args:  cobra.NoArgs,
		RunE:  runExportCmd,
	}
	cmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default: stdout)")
	return cmd
}

func runExportCmd(cmd *cobra.Command, _ []string) error {
	return withStore(func(ctx context.Context, st *analytics.Store, logger *log.Logger) error {
		data, err := st.ExportJSON(ctx)
		if err != nil {
			return fmt.Errorf("failed to encode export: %w", err)
		}
		data = append(data, '\n')
		if exportOut == "" {
			_, err := cmd.OutOrStdout().Write(data)
			return err
		}
		if err := writeFileAtomic(exportOut, data); err != nil {
			return err
		}
		logger.Info("exported analytics", "user", st.UserID(), "path", exportOut)
		return nil
	})
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace analytics with an exported JSON file",
		Args:  cobra.ExactArgs(1),
		RunE:  runImportCmd,
	}
}

func runImportCmd(_ *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read import file: %w", err)
	}
	return withStore(func(ctx context.Context, st *analytics.Store, logger *log.Logger) error {
		if err := st.ImportJSON(ctx, data); err != nil {
			return err
		}
		logger.Info("imported analytics", "user", st.UserID(), "path", args[0])
		return nil
	})
}

func newClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all analytics for the user",
		Args:  cobra.NoArgs,
		RunE:  runClearCmd,
	}
	cmd.Flags().BoolVar(&clearYes, "yes", false, "confirm deletion")
	return cmd
}

func runClearCmd(_ *cobra.Command, _ []string) error {
	if !clearYes {
		return fmt.Errorf("refusing to delete analytics without --yes")
	}
	return withStore(func(ctx context.Context, st *analytics.Store, _ *log.Logger) error {
		return st.Clear(ctx)
	})
}

func newSamplesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "samples",
		Short: "List built-in custom texts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeSamples(cmd.OutOrStdout())
		},
	}
}

func writeSamples(w io.Writer) error {
	for i, sample := range wordsource.SampleTexts() {
		ts, err := wordsource.ValidateCustomText(sample.Text)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%d. %s (%d words, %d chars)\n   %s\n\n", i+1, sample.Title, ts.Words, ts.Chars, sample.Text); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := globalConfig
	if path == "" {
		env, err := config.LoadEnv(".env")
		if err != nil {
			return err
		}
		path = env.ConfigFilePath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# typeclock configuration
# Uncomment a value to enable it. CLI flags and TYPECLOCK_* variables override it.

[practice]
# mode = %q            # words or custom
# duration = %d           # seconds (presets: 15, 30, 60, 120)
# words = %d             # words generated up front in words mode
# text-file = ""          # custom text file for custom mode
# dictionary = ""         # word list file, one word per line
# caps = %.2f             # probability of capitalized first letter (0-1)
# punct = %.2f            # punctuation probability per word (0-1)
# punct-set = %q      # punctuation set

[storage]
# user = %q         # analytics user id
# db = %q

[log]
# level = %q           # debug, info, warn or error
`,
		defaultMode,
		defaultDuration,
		defaultWords,
		defaultCaps,
		defaultPunct,
		defaultPunctSet,
		defaultUser,
		config.DefaultDBPath(),
		defaultLogLevel,
	)
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "typeclock-export-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()
	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close export: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}
