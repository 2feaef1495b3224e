package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/questionbank/internal/config"
	"github.com/JonMunkholm/questionbank/internal/ingest"
	"github.com/JonMunkholm/questionbank/internal/logging"
	"github.com/JonMunkholm/questionbank/internal/store"
)

// errRowsFailed makes the process exit non-zero when the report has errors.
var errRowsFailed = errors.New("ingestion finished with errors")

var (
	batchSizeFlag int
	modeFlag      string
	rulesFlag     string
)

var rootCmd = &cobra.Command{
	Use:   "ingest <file.csv>",
	Short: "Load interview questions from a CSV file into the question bank",
	Long: `ingest reads a CSV file of interview questions, validates every row and
stores the valid ones in batches. When a batch is rejected its rows are
retried one by one, so a single bad row never costs the rest of its batch.

The file needs a header row. Columns are matched by name (content, category,
company, year or questionAt); without a recognizable header they are read in
the order content, category, company, year.

The report is printed to stdout as JSON. Logs go to stderr. The exit status is
non-zero when any row failed.

Pass "-" to read from stdin.

Examples:
  ingest questions.csv
  ingest questions.csv --batch-size 500 --mode all
  cat questions.csv | ingest -`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runIngest,
}

func init() {
	rootCmd.Flags().IntVar(&batchSizeFlag, "batch-size", 0, "Questions per batch commit (default from INGEST_BATCH_SIZE)")
	rootCmd.Flags().StringVar(&modeFlag, "mode", "", "Validation mode: first or all (default from INGEST_VALIDATION_MODE)")
	rootCmd.Flags().StringVar(&rulesFlag, "rules", "", "YAML rule profile (default from INGEST_RULES_FILE)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errRowsFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
			if hint := errors.FlattenHints(err); hint != "" {
				fmt.Fprintln(os.Stderr, "Hint:", hint)
			}
		}
		os.Exit(1)
	}
}

func runIngest(cmd *cobra.Command, args []string) error {
	// A missing .env is fine; explicit environment wins over the file.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "load configuration")
	}
	if err := applyFlags(cmd, cfg); err != nil {
		return err
	}

	slog.SetDefault(logging.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Format))

	profile, err := config.LoadRuleProfile(cfg.Ingest.RulesFile)
	if err != nil {
		return err
	}

	input, name, err := openInput(args[0])
	if err != nil {
		return err
	}
	defer input.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return errors.WithHint(err, "Check DATABASE_URL and that the database is running.")
	}
	defer pool.Close()

	questions := store.NewQuestionStore(pool, cfg.Ingest.UseCopy)
	if cfg.Database.EnsureSchema {
		if err := questions.EnsureSchema(ctx, cfg.Database.UniqueContent); err != nil {
			return err
		}
	}

	if cfg.Ingest.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Ingest.Timeout)
		defer cancel()
	}

	slog.Info("ingesting", "file", name, "batch_size", cfg.Ingest.BatchSize, "mode", cfg.Ingest.ValidationMode)

	report := ingest.New(questions, ingest.OptionsFromConfig(cfg.Ingest, profile)).Ingest(ctx, input)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return errors.Wrap(err, "write report")
	}

	if len(report.Errors) > 0 {
		explain(cmd.ErrOrStderr(), report)
		return errRowsFailed
	}
	return nil
}

// explain prints the user-facing reading of errors that concern the whole
// file rather than one row.
func explain(w io.Writer, report ingest.Report) {
	for _, msg := range report.Errors {
		if strings.HasPrefix(msg, "row ") {
			continue
		}
		if err := errors.New(msg); ingest.IsUserFacing(err) {
			fmt.Fprintln(w, ingest.FormatUserError(err))
		}
	}
}

// applyFlags lets explicitly set flags override the environment.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	if cmd.Flags().Changed("batch-size") {
		cfg.Ingest.BatchSize = batchSizeFlag
	}
	if cmd.Flags().Changed("mode") {
		cfg.Ingest.ValidationMode = modeFlag
	}
	if cmd.Flags().Changed("rules") {
		cfg.Ingest.RulesFile = rulesFlag
	}
	return cfg.Validate()
}

// openInput opens the named CSV file, or stdin for "-".
func openInput(path string) (io.ReadCloser, string, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), "stdin", nil
	}
	if !strings.EqualFold(filepath.Ext(path), ".csv") {
		return nil, "", errors.WithHint(errors.Newf("not a csv file: %s", path), "Export the sheet as .csv first.")
	}

	f, err := os.Open(path) //nolint:gosec // path is given by the operator
	if err != nil {
		return nil, "", errors.Wrap(err, "open input")
	}
	return f, filepath.Base(path), nil
}
