package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"bank-reconciliation-engine/cmd/reconciler/config"
	"bank-reconciliation-engine/internal/parsers"
	"bank-reconciliation-engine/internal/reconciler"
	"bank-reconciliation-engine/pkg/errors"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var showProgress bool

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Run the guided statement import with inline matching",
	Long: `Import runs the statement import wizard: it tokenizes the statement
file, infers a column mapping from the header row, builds transactions
with best-effort fallbacks for messy cells, and matches each one
against the ledger as it is imported using the fast first-qualifying
strategy.

Interrupting the run (Ctrl-C) stops further matching but keeps every
match committed so far.

Examples:
  reconciler import --statement-file statement.csv --ledger-file ledger.csv \
    --account ACC-001 --statement-balance 10500.00 --book-balance 10400.00

  reconciler import --statement-file stmt.csv --ledger-file gl.csv \
    --account ACC-001 --statement-balance 0 --book-balance 0 --progress`,

	PreRunE: validateReconcileFlags,
	RunE:    runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVarP(&statementFile, "statement-file", "s", "", "path to bank statement CSV file (required)")
	importCmd.Flags().StringVarP(&ledgerFile, "ledger-file", "l", "", "path to ledger entries CSV file (required)")
	importCmd.Flags().StringVar(&bankAccountID, "account", "", "bank account id the session is scoped to (required)")

	importCmd.Flags().StringVar(&statementBalance, "statement-balance", "0", "statement closing balance")
	importCmd.Flags().StringVar(&bookBalance, "book-balance", "0", "general ledger book balance")
	importCmd.Flags().StringVar(&statementDateArg, "statement-date", "", "statement date (YYYY-MM-DD, default: today)")

	importCmd.Flags().StringVarP(&outputFormat, "output-format", "f", "console", "output format: console, json, csv")
	importCmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "output file path (default: stdout)")

	importCmd.Flags().StringVar(&delimiter, "delimiter", ",", "statement cell delimiter")
	importCmd.Flags().BoolVar(&noHeader, "no-header", false, "statement file has no header row")
	importCmd.Flags().IntVarP(&dateTolerance, "date-tolerance", "d", 0, "import matching date tolerance in days (default 7)")

	importCmd.Flags().BoolVar(&showProgress, "progress", false, "show matching progress")

	importCmd.MarkFlagRequired("statement-file")
	importCmd.MarkFlagRequired("ledger-file")
	importCmd.MarkFlagRequired("account")
}

func runImport(cmd *cobra.Command, args []string) error {
	parserConfig, err := config.CreateStatementParserConfig(delimiter, !noHeader)
	if err != nil {
		return err
	}
	matcherConfig, err := config.CreateMatcherConfig(0, dateTolerance)
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(statementFile)
	if err != nil {
		return errors.FileError(errors.CodeFileNotFound, statementFile, err)
	}

	wizard := reconciler.NewImportWizard(parserConfig, matcherConfig)
	if showProgress {
		wizard.AddProgressCallback(func(percent int) {
			fmt.Fprintf(os.Stderr, "\rMatching... %3d%%", percent)
		})
	}

	mapping, err := wizard.Start(string(raw))
	if err != nil {
		return err
	}
	if viper.GetBool("verbose") {
		printMapping(mapping)
	}

	build, err := wizard.ConfirmMapping(nil)
	if err != nil {
		return err
	}
	if summary := build.WarningSummary(); summary.Total > 0 {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", summary.String())
	}

	ledgerParser := parsers.NewLedgerParser(config.CreateLedgerParserConfig())
	entries, err := ledgerParser.ParseFile(ledgerFile)
	if err != nil {
		return err
	}

	stmtBalance, _ := decimal.NewFromString(statementBalance)
	bkBalance, _ := decimal.NewFromString(bookBalance)
	statementDate := time.Now()
	if statementDateArg != "" {
		statementDate, _ = time.Parse("2006-01-02", statementDateArg)
	}

	session, err := wizard.CreateSession(bankAccountID, statementDate, stmtBalance, bkBalance, entries)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	committed, err := wizard.AutoMatch(ctx, session)
	if showProgress {
		fmt.Fprintf(os.Stderr, "\n")
	}
	if err != nil {
		// Cancellation keeps the committed matches; report them anyway.
		fmt.Fprintf(os.Stderr, "Import interrupted after %d matches.\n", committed)
	} else if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Imported %d transactions, matched %d during import.\n",
			len(build.Transactions), committed)
	}

	return writeReport(session)
}

func printMapping(mapping *parsers.ColumnMapping) {
	fmt.Fprintf(os.Stderr, "Inferred column mapping:\n")
	fmt.Fprintf(os.Stderr, "  date: %d, description: %d, debit: %d, credit: %d, balance: %d, reference: %d\n",
		mapping.Date, mapping.Description, mapping.Debit, mapping.Credit, mapping.Balance, mapping.Reference)
}
