package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"bank-reconciliation-engine/cmd/reconciler/config"
	"bank-reconciliation-engine/internal/matcher"
	"bank-reconciliation-engine/internal/parsers"
	"bank-reconciliation-engine/internal/reconciler"
	"bank-reconciliation-engine/internal/reporter"
	"bank-reconciliation-engine/pkg/errors"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the reconcile command
var (
	statementFile    string
	ledgerFile       string
	bankAccountID    string
	statementDateArg string
	statementBalance string
	bookBalance      string
	outputFormat     string
	outputFile       string
	delimiter        string
	noHeader         bool
	autoThreshold    int
	dateTolerance    int
	searchTerm       string
)

// reconcileCmd represents the reconcile command
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile a bank statement against ledger entries",
	Long: `Reconcile parses a bank statement CSV export and the account's
ledger entries, runs the strict score-based auto-matcher, and reports
matched pairs, unmatched items on both sides, and the reconciliation
difference.

Column roles in the statement file are inferred from the header row.

Examples:
  # Basic reconciliation
  reconciler reconcile --statement-file statement.csv --ledger-file ledger.csv \
    --account ACC-001 --statement-balance 10500.00 --book-balance 10400.00

  # Custom output format and auto-match threshold
  reconciler reconcile --statement-file stmt.csv --ledger-file gl.csv \
    --account ACC-001 --statement-balance 0 --book-balance 0 \
    --output-format json --output-file report.json --auto-threshold 90

  # Semicolon-delimited export without a header row
  reconciler reconcile --statement-file stmt.csv --ledger-file gl.csv \
    --account ACC-001 --statement-balance 0 --book-balance 0 \
    --delimiter ';' --no-header`,

	PreRunE: validateReconcileFlags,
	RunE:    runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)

	// Required flags
	reconcileCmd.Flags().StringVarP(&statementFile, "statement-file", "s", "", "path to bank statement CSV file (required)")
	reconcileCmd.Flags().StringVarP(&ledgerFile, "ledger-file", "l", "", "path to ledger entries CSV file (required)")
	reconcileCmd.Flags().StringVar(&bankAccountID, "account", "", "bank account id the session is scoped to (required)")

	// Balance flags
	reconcileCmd.Flags().StringVar(&statementBalance, "statement-balance", "0", "statement closing balance")
	reconcileCmd.Flags().StringVar(&bookBalance, "book-balance", "0", "general ledger book balance")
	reconcileCmd.Flags().StringVar(&statementDateArg, "statement-date", "", "statement date (YYYY-MM-DD, default: today)")

	// Output flags
	reconcileCmd.Flags().StringVarP(&outputFormat, "output-format", "f", "console", "output format: console, json, csv")
	reconcileCmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "output file path (default: stdout)")

	// Parsing flags
	reconcileCmd.Flags().StringVar(&delimiter, "delimiter", ",", "statement cell delimiter")
	reconcileCmd.Flags().BoolVar(&noHeader, "no-header", false, "statement file has no header row")

	// Matching configuration flags
	reconcileCmd.Flags().IntVar(&autoThreshold, "auto-threshold", 0, "minimum score for automatic matching (1-100, default 85)")
	reconcileCmd.Flags().IntVarP(&dateTolerance, "date-tolerance", "d", 0, "import matching date tolerance in days (default 7)")

	// Review flags
	reconcileCmd.Flags().StringVar(&searchTerm, "search", "", "filter unmatched ledger entries by description or document number")

	// Mark required flags
	reconcileCmd.MarkFlagRequired("statement-file")
	reconcileCmd.MarkFlagRequired("ledger-file")
	reconcileCmd.MarkFlagRequired("account")

	// Bind flags to viper
	viper.BindPFlag("statement-file", reconcileCmd.Flags().Lookup("statement-file"))
	viper.BindPFlag("ledger-file", reconcileCmd.Flags().Lookup("ledger-file"))
	viper.BindPFlag("output-format", reconcileCmd.Flags().Lookup("output-format"))
	viper.BindPFlag("output-file", reconcileCmd.Flags().Lookup("output-file"))
	viper.BindPFlag("auto-threshold", reconcileCmd.Flags().Lookup("auto-threshold"))
	viper.BindPFlag("date-tolerance", reconcileCmd.Flags().Lookup("date-tolerance"))
}

func validateReconcileFlags(cmd *cobra.Command, args []string) error {
	if err := validateFileExists(statementFile, "statement file"); err != nil {
		return err
	}
	if err := validateFileExists(ledgerFile, "ledger file"); err != nil {
		return err
	}

	validFormats := map[string]bool{"console": true, "json": true, "csv": true}
	if !validFormats[outputFormat] {
		return fmt.Errorf("invalid output format '%s'. Valid formats: console, json, csv", outputFormat)
	}

	if statementDateArg != "" {
		if _, err := time.Parse("2006-01-02", statementDateArg); err != nil {
			return fmt.Errorf("invalid statement date format. Use YYYY-MM-DD: %w", err)
		}
	}

	if _, err := decimal.NewFromString(statementBalance); err != nil {
		return fmt.Errorf("invalid statement balance '%s': %w", statementBalance, err)
	}
	if _, err := decimal.NewFromString(bookBalance); err != nil {
		return fmt.Errorf("invalid book balance '%s': %w", bookBalance, err)
	}

	if autoThreshold < 0 || autoThreshold > 100 {
		return fmt.Errorf("auto-threshold must be between 0 and 100")
	}
	if dateTolerance < 0 {
		return fmt.Errorf("date tolerance cannot be negative")
	}

	if outputFile != "" {
		dir := filepath.Dir(outputFile)
		if dir != "." {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				return fmt.Errorf("output directory does not exist: %s", dir)
			}
		}
	}

	return nil
}

func validateFileExists(filePath, description string) error {
	if filePath == "" {
		return fmt.Errorf("%s path cannot be empty", description)
	}

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return errors.FileError(errors.CodeFileNotFound, filePath, err)
	}
	if err != nil {
		return fmt.Errorf("error accessing %s: %w", description, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, expected a file: %s", description, filePath)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return errors.FileError(errors.CodeFilePermission, filePath, err)
	}
	file.Close()

	return nil
}

func runReconcile(cmd *cobra.Command, args []string) error {
	session, err := buildSession()
	if err != nil {
		return err
	}

	matcherConfig, err := config.CreateMatcherConfig(autoThreshold, dateTolerance)
	if err != nil {
		return err
	}

	committed, err := session.RunAutoMatch(matcher.NewStrictStrategy(matcherConfig))
	if err != nil {
		return err
	}

	if viper.GetBool("verbose") {
		summary := session.Summarize()
		fmt.Fprintf(os.Stderr, "Auto-matched %d pairs.\n", committed)
		fmt.Fprintf(os.Stderr, "Unmatched: %d bank items, %d book items. Difference: %s\n",
			summary.UnmatchedStatementCount, summary.UnmatchedLedgerCount,
			summary.Difference.StringFixed(2))
		if searchTerm != "" {
			filtered := session.UnmatchedLedgerEntries(searchTerm)
			fmt.Fprintf(os.Stderr, "Unmatched book items matching %q: %d\n", searchTerm, len(filtered))
		}
	}

	return writeReport(session)
}

// buildSession parses both input files and assembles the session the
// reconcile and import commands share.
func buildSession() (*reconciler.Session, error) {
	parserConfig, err := config.CreateStatementParserConfig(delimiter, !noHeader)
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(statementFile)
	if err != nil {
		return nil, errors.FileError(errors.CodeFileNotFound, statementFile, err)
	}

	parser := parsers.NewStatementParser(parserConfig)
	rows := parser.ParseRawRows(string(raw))

	var header []string
	if parserConfig.HasHeader && len(rows) > 0 {
		header = rows[0]
	}
	mapping := parsers.InferMapping(header)

	build, err := parser.BuildTransactions(rows, mapping)
	if err != nil {
		return nil, err
	}
	if summary := build.WarningSummary(); summary.Total > 0 && viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "%s\n", summary.String())
	}

	ledgerParser := parsers.NewLedgerParser(config.CreateLedgerParserConfig())
	entries, err := ledgerParser.ParseFile(ledgerFile)
	if err != nil {
		return nil, err
	}

	stmtBalance, _ := decimal.NewFromString(statementBalance)
	bkBalance, _ := decimal.NewFromString(bookBalance)

	statementDate := time.Now()
	if statementDateArg != "" {
		statementDate, _ = time.Parse("2006-01-02", statementDateArg)
	}

	matcherConfig, err := config.CreateMatcherConfig(autoThreshold, dateTolerance)
	if err != nil {
		return nil, err
	}

	return reconciler.NewSession(bankAccountID, statementDate, stmtBalance, bkBalance,
		build.Transactions, entries, matcherConfig)
}

// writeReport renders the session in the requested format to stdout or
// the output file.
func writeReport(session *reconciler.Session) error {
	reportConfig := config.CreateReportConfig(outputFormat)
	generator, err := reporter.NewReportGenerator(reportConfig)
	if err != nil {
		return err
	}

	output := os.Stdout
	if outputFile != "" {
		output, err = os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer output.Close()
	}

	return generator.GenerateReport(session, output)
}
