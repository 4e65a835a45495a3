package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/d1j/facebook-stats/internal/analyzer"
	"github.com/d1j/facebook-stats/internal/config"
	"github.com/d1j/facebook-stats/internal/core/model"
	"github.com/d1j/facebook-stats/internal/presentation/formatter"
	"github.com/d1j/facebook-stats/internal/store"
	"github.com/d1j/facebook-stats/internal/util"
)

var (
	// Logging related
	debug bool

	// Data paths
	configPath string
	dataDir    string
	cacheDir   string
	dbPath     string

	// Output related
	outputFormat string
	timezone     string

	// Ingestion
	reaction        string
	concurrency     int
	discoverSenders bool
	rawEncoding     bool
	dedupe          bool
	noCache         bool
	reset           bool

	rootCmd = &cobra.Command{
		Use:   "facebook-stats [flags]",
		Short: "Messenger group chat statistics",
		Long: `facebook-stats reads an exported Messenger group chat archive and reports who
sends messages and who gives "cha" reactions to whom.

The archive directory holds the message_*.json fragments of one conversation.

Examples:
  facebook-stats --dir ./inbox/friends_abc123           # Reaction matrix as a table
  facebook-stats --dir ./inbox/friends_abc123 -o csv    # Matrix export
  facebook-stats --reaction any                         # Count every reaction kind
  facebook-stats series --granularity month             # Monthly messages sent per participant
  facebook-stats series --metric reactions --direction received --from 2019-01
  facebook-stats summary                                # Messages, media and calls per sender
  facebook-stats history --db ~/.facebook-stats/history.db`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
		RunE:              runReport,
	}

	reportCmd = &cobra.Command{
		Use:   "report",
		Short: "Print the reaction given/received matrix",
		RunE:  runReport,
	}
)

const (
	defaultLogFile  = "~/.facebook-stats/logs/app.log"
	defaultCacheDir = "~/.facebook-stats/cache"
	defaultDBPath   = "~/.facebook-stats/history.db"
	defaultDataDir  = "."
)

func init() {
	flags := rootCmd.PersistentFlags()

	// Input data configuration
	flags.StringVar(&dataDir, "dir", defaultDataDir,
		"Archive directory holding the message_*.json fragments")
	flags.StringVar(&configPath, "config", config.DefaultPath,
		"YAML file with flag defaults")
	flags.StringVar(&cacheDir, "cache-dir", defaultCacheDir,
		"Fragment cache directory")
	flags.StringVar(&dbPath, "db", "",
		"SQLite database to record runs in (history reads "+defaultDBPath+" when unset)")

	// Counting
	flags.StringVar(&reaction, "reaction", "cha",
		"Reaction kind to count: an emoji, cha (😆) or any")
	flags.BoolVar(&discoverSenders, "discover-senders", false,
		"Also register message senders and reaction actors missing from participant lists")
	flags.BoolVar(&rawEncoding, "raw-encoding", false,
		"Do not repair the latin-1 mojibake of Messenger exports")
	flags.BoolVar(&dedupe, "dedupe", false,
		"Drop identical messages found in overlapping fragments")

	// Output configuration
	flags.StringVarP(&outputFormat, "output", "o", "",
		"Output format (table, csv, json, summary); the default depends on the command")
	flags.StringVar(&timezone, "timezone", "Local",
		"Timezone for calendar dates (e.g., Europe/Vilnius, UTC)")

	// System and debugging
	flags.IntVar(&concurrency, "concurrency", runtime.NumCPU(),
		"Fragments parsed in parallel")
	flags.BoolVar(&noCache, "no-cache", false,
		"Bypass the fragment cache")
	flags.BoolVarP(&reset, "reset", "r", false,
		"Clear the fragment cache before loading")
	flags.BoolVar(&debug, "debug", false,
		"Enable debug mode")

	rootCmd.AddCommand(reportCmd)
}

// setup applies the config file to flags the user did not set, then starts
// logging and the time provider.
func setup(cmd *cobra.Command, args []string) error {
	if err := applyConfig(cmd); err != nil {
		return err
	}

	logLevel := "info"
	if debug {
		logLevel = "debug"
	}
	logFile := expandPath(defaultLogFile)
	if err := util.InitLogger(logLevel, logFile, debug); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	if err := util.InitializeTimeProvider(timezone); err != nil {
		return err
	}

	if f, ok := cmd.OutOrStdout().(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		color.NoColor = true
	}
	return nil
}

func applyConfig(cmd *cobra.Command) error {
	cfg, err := config.Load(expandPath(configPath))
	if err != nil {
		return err
	}

	for name, value := range cfg.FlagValues() {
		flag := cmd.Flags().Lookup(name)
		if flag == nil || flag.Changed {
			continue
		}
		if err := cmd.Flags().Set(name, value); err != nil {
			return fmt.Errorf("invalid %s in config file: %w", name, err)
		}
	}
	return nil
}

// resolveReaction maps the --reaction value to the counted kind.
func resolveReaction(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "cha":
		return model.ReactionCha
	case "any", "all":
		return model.ReactionAny
	default:
		return strings.TrimSpace(value)
	}
}

func newAnalyzer() (*analyzer.Analyzer, error) {
	if concurrency < 1 {
		return nil, fmt.Errorf("concurrency must be at least 1, got %d", concurrency)
	}

	config := &analyzer.Config{
		DataDir:         expandPath(dataDir),
		CacheDir:        expandPath(cacheDir),
		UseCache:        !noCache,
		Reaction:        resolveReaction(reaction),
		Location:        util.GetTimeProvider().Location(),
		Concurrency:     concurrency,
		DiscoverSenders: discoverSenders,
		RawEncoding:     rawEncoding,
		Dedupe:          dedupe,
	}

	a := analyzer.New(config)
	if reset {
		if err := a.ClearCache(); err != nil {
			return nil, fmt.Errorf("failed to clear cache: %w", err)
		}
		util.LogInfo("Cache cleared")
	}
	return a, nil
}

func loadDataset(ctx context.Context) (*analyzer.Dataset, error) {
	a, err := newAnalyzer()
	if err != nil {
		return nil, err
	}
	return a.Load(ctx)
}

func runReport(cmd *cobra.Command, args []string) error {
	f, err := formatter.NewMatrixFormatter(outputFormat)
	if err != nil {
		return err
	}

	dataset, err := loadDataset(cmd.Context())
	if err != nil {
		return err
	}

	snapshot, report := dataset.Matrix()
	if report.SkippedEvents > 0 || report.SkippedReactions > 0 {
		util.LogWarnf("Skipped %d messages and %d reactions of unknown participants %v",
			report.SkippedEvents, report.SkippedReactions, report.UnknownNames)
	}

	if err := f.FormatMatrix(cmd.OutOrStdout(), snapshot); err != nil {
		return err
	}

	return recordRun(cmd.Context(), &store.RunRecord{
		Command:  "report",
		Snapshot: &snapshot,
	}, dataset)
}

// recordRun saves run when --db is set.
func recordRun(ctx context.Context, run *store.RunRecord, dataset *analyzer.Dataset) error {
	if dbPath == "" {
		return nil
	}

	s, err := store.NewSQLiteStore(expandPath(dbPath))
	if err != nil {
		return fmt.Errorf("failed to open run history: %w", err)
	}
	defer s.Close()

	run.ArchiveDir = expandPath(dataDir)
	run.Timezone = dataset.Location.String()
	run.Files = dataset.Stats.Files
	run.Events = dataset.Stats.Events

	id, err := s.SaveRun(ctx, run)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	util.LogInfo("Run saved", util.Field{Key: "id", Value: id})
	return nil
}

func Execute() error {
	return rootCmd.Execute()
}

// Helper functions

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return absPath
}
