package reconciler

import (
	"context"
	"runtime"
	"time"

	"bank-reconciliation-engine/internal/matcher"
	"bank-reconciliation-engine/internal/models"
	"bank-reconciliation-engine/internal/parsers"
	"bank-reconciliation-engine/pkg/errors"
	"bank-reconciliation-engine/pkg/logger"

	"github.com/shopspring/decimal"
)

// WizardState is one step of the import wizard's finite state machine.
type WizardState string

const (
	// StateIdle is the initial state before any statement text arrives.
	StateIdle WizardState = "idle"
	// StateAwaitMapping means rows are tokenized and a column mapping
	// proposal awaits confirmation or override.
	StateAwaitMapping WizardState = "await-mapping"
	// StateReadyToMatch means transactions are built and a session can
	// run the auto-match phase.
	StateReadyToMatch WizardState = "ready-to-match"
	// StateReview means auto-match finished (or was cancelled) and the
	// results await human review.
	StateReview WizardState = "review"
	// StateDone means the wizard completed.
	StateDone WizardState = "done"
)

// ProgressFunc receives auto-match progress as a 0-100 percentage.
type ProgressFunc func(percent int)

// ImportWizard sequences a statement import: tokenize, infer columns,
// await the effective mapping, build transactions, auto-match with
// incremental progress, then hand over to review. The wizard drives the
// session one transaction at a time during auto-match and yields
// between steps so a host UI can paint progress; cancellation between
// steps keeps every already-committed match.
type ImportWizard struct {
	parser        *parsers.StatementParser
	parserConfig  *parsers.StatementParserConfig
	matcherConfig *matcher.Config
	logger        logger.Logger

	state    WizardState
	rows     [][]string
	roles    []parsers.ColumnRole
	mapping  *parsers.ColumnMapping
	build    *parsers.BuildResult
	progress []ProgressFunc
}

// NewImportWizard creates an import wizard.
func NewImportWizard(parserConfig *parsers.StatementParserConfig, matcherConfig *matcher.Config) *ImportWizard {
	if parserConfig == nil {
		parserConfig = parsers.DefaultStatementParserConfig()
	}
	if matcherConfig == nil {
		matcherConfig = matcher.DefaultConfig()
	}
	return &ImportWizard{
		parser:        parsers.NewStatementParser(parserConfig),
		parserConfig:  parserConfig,
		matcherConfig: matcherConfig,
		logger:        logger.GetGlobalLogger().WithComponent("import_wizard"),
		state:         StateIdle,
	}
}

// State returns the wizard's current state.
func (w *ImportWizard) State() WizardState {
	return w.state
}

// AddProgressCallback registers a callback for auto-match progress.
func (w *ImportWizard) AddProgressCallback(fn ProgressFunc) {
	w.progress = append(w.progress, fn)
}

// Start tokenizes the raw statement text and proposes a column mapping
// from the header row. The wizard moves to StateAwaitMapping; the
// caller may override the proposal before confirming.
func (w *ImportWizard) Start(raw string) (*parsers.ColumnMapping, error) {
	if w.state != StateIdle {
		return nil, errors.InternalError("wizard start", nil).
			WithContext("state", string(w.state))
	}

	w.rows = w.parser.ParseRawRows(raw)

	var header []string
	if w.parserConfig.HasHeader && len(w.rows) > 0 {
		header = w.rows[0]
	}
	w.roles = parsers.InferColumnRoles(header)
	w.mapping = parsers.MappingFromRoles(w.roles)
	w.state = StateAwaitMapping

	w.logger.WithFields(logger.Fields{
		"rows":    len(w.rows),
		"columns": len(header),
	}).Info("Statement tokenized, mapping proposed")

	return w.mapping.Clone(), nil
}

// ProposedRoles returns the per-column role guesses for display.
func (w *ImportWizard) ProposedRoles() []parsers.ColumnRole {
	return w.roles
}

// ConfirmMapping accepts the effective column mapping (the proposal
// plus any user edits) and builds the statement transactions. A nil
// mapping confirms the unedited proposal. The mandatory date and
// description mappings are validated here; a failure keeps the wizard
// in StateAwaitMapping so the user can fix the mapping and retry.
func (w *ImportWizard) ConfirmMapping(mapping *parsers.ColumnMapping) (*parsers.BuildResult, error) {
	if w.state != StateAwaitMapping {
		return nil, errors.InternalError("wizard mapping confirmation", nil).
			WithContext("state", string(w.state))
	}

	if mapping != nil {
		w.mapping = mapping.Clone()
	}

	build, err := w.parser.BuildTransactions(w.rows, w.mapping)
	if err != nil {
		return nil, err
	}

	w.build = build
	w.state = StateReadyToMatch

	if summary := build.WarningSummary(); summary.Total > 0 {
		w.logger.Warn(summary.String())
	}

	return build, nil
}

// CreateSession builds a reconciliation session over the imported
// transactions and the externally supplied account-scoped ledger
// entries.
func (w *ImportWizard) CreateSession(
	bankAccountID string,
	statementDate time.Time,
	statementBalance, bookBalance decimal.Decimal,
	entries []*models.LedgerEntry,
) (*Session, error) {
	if w.state != StateReadyToMatch {
		return nil, errors.InternalError("wizard session creation", nil).
			WithContext("state", string(w.state))
	}
	return NewSession(bankAccountID, statementDate, statementBalance, bookBalance,
		w.build.Transactions, entries, w.matcherConfig)
}

// AutoMatch runs the import-time matching strategy over the session one
// statement transaction at a time, reporting progress after each and
// yielding control between steps. Cancellation via ctx stops further
// processing but leaves already-committed matches intact: there is no
// partial rollback. Returns the number of matches committed.
func (w *ImportWizard) AutoMatch(ctx context.Context, session *Session) (int, error) {
	if w.state != StateReadyToMatch {
		return 0, errors.InternalError("wizard auto-match", nil).
			WithContext("state", string(w.state))
	}
	if ctx == nil {
		ctx = context.Background()
	}

	strategy := matcher.NewImportStrategy(w.matcherConfig)
	tracker := logger.NewProgressTracker(logger.ProgressConfig{
		Operation: "import auto-match",
		Total:     int64(len(session.Transactions())),
		Logger:    w.logger,
	})

	committed := 0
	total := len(session.Transactions())
	for i, tx := range session.Transactions() {
		select {
		case <-ctx.Done():
			w.state = StateReview
			w.logger.WithFields(logger.Fields{
				"processed": i,
				"committed": committed,
			}).Warn("Auto-match cancelled, committed matches kept")
			return committed, ctx.Err()
		default:
		}

		proposals := strategy.Run([]*models.StatementTransaction{tx}, session.Entries(), session.Matches())
		for _, m := range proposals {
			if err := session.AddMatch(m); err != nil {
				return committed, errors.InternalError("auto-match commit", err)
			}
			committed++
		}

		tracker.Increment()
		w.reportProgress((i + 1) * 100 / total)

		// Cooperative yield so a host UI can paint progress.
		runtime.Gosched()
	}

	tracker.Complete()
	w.state = StateReview
	return committed, nil
}

// Finish marks the wizard as done after human review.
func (w *ImportWizard) Finish() error {
	if w.state != StateReview {
		return errors.InternalError("wizard finish", nil).
			WithContext("state", string(w.state))
	}
	w.state = StateDone
	return nil
}

func (w *ImportWizard) reportProgress(percent int) {
	for _, fn := range w.progress {
		fn(percent)
	}
}
