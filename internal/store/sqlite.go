package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"macro-trader/internal/models"
)

// currentGeneration is the row key for the live account; archived
// generations use the reset's backup identity as their key.
const currentGeneration = "current"

// SQLiteStore persists the account state, archived generations and
// fetched macro snapshots in SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	-- One row per account generation; "current" is the live account,
	-- everything else is a reset archive keyed by its backup identity.
	CREATE TABLE IF NOT EXISTS accounts (
		generation TEXT PRIMARY KEY,
		schema_version INTEGER NOT NULL,
		initial_capital REAL NOT NULL,
		current_balance REAL NOT NULL,
		total_trades INTEGER NOT NULL,
		winning_trades INTEGER NOT NULL,
		losing_trades INTEGER NOT NULL,
		total_pnl REAL NOT NULL,
		win_rate REAL NOT NULL,
		largest_win REAL NOT NULL,
		largest_loss REAL NOT NULL,
		peak_balance REAL NOT NULL,
		drawdown REAL NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS trades (
		generation TEXT NOT NULL,
		trade_id INTEGER NOT NULL,
		signal TEXT NOT NULL,
		entry_price REAL NOT NULL,
		exit_price REAL NOT NULL,
		position_size REAL NOT NULL,
		pnl REAL NOT NULL,
		date_opened DATETIME,
		date_closed DATETIME,
		close_reason TEXT,
		recorded_at DATETIME NOT NULL,
		PRIMARY KEY (generation, trade_id)
	);

	CREATE TABLE IF NOT EXISTS balance_events (
		generation TEXT NOT NULL,
		seq INTEGER NOT NULL,
		timestamp DATETIME NOT NULL,
		balance REAL NOT NULL,
		delta REAL NOT NULL,
		event TEXT NOT NULL,
		PRIMARY KEY (generation, seq)
	);

	CREATE TABLE IF NOT EXISTS macro_snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		fetched_at DATETIME NOT NULL,
		fed_rate REAL NOT NULL,
		treasury_10y REAL NOT NULL,
		cpi_yoy REAL NOT NULL,
		gold_price REAL NOT NULL,
		dxy_level REAL NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Load reads the current generation. No row means no state yet.
func (s *SQLiteStore) Load() (*models.AccountState, error) {
	return s.loadGeneration(currentGeneration)
}

// Save replaces the current generation inside one transaction.
func (s *SQLiteStore) Save(state *models.AccountState) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning save: %w", err)
	}
	defer tx.Rollback()

	if err := deleteGeneration(tx, currentGeneration); err != nil {
		return err
	}
	if err := insertGeneration(tx, currentGeneration, state); err != nil {
		return err
	}
	return tx.Commit()
}

// Archive stores a full copy of the state under the given identity.
func (s *SQLiteStore) Archive(state *models.AccountState, identity string) error {
	if identity == "" || identity == currentGeneration {
		return fmt.Errorf("invalid archive identity %q", identity)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning archive: %w", err)
	}
	defer tx.Rollback()

	if err := insertGeneration(tx, identity, state); err != nil {
		return err
	}
	return tx.Commit()
}

// LoadArchive reads an archived generation by its identity.
func (s *SQLiteStore) LoadArchive(identity string) (*models.AccountState, error) {
	return s.loadGeneration(identity)
}

// SaveSnapshot appends one fetched macro snapshot.
func (s *SQLiteStore) SaveSnapshot(snap models.MacroSnapshot) error {
	_, err := s.db.Exec(`
		INSERT INTO macro_snapshots (fetched_at, fed_rate, treasury_10y, cpi_yoy, gold_price, dxy_level)
		VALUES (?, ?, ?, ?, ?, ?)`,
		snap.FetchedAt, snap.FedRate, snap.Treasury10Y, snap.CPIYoY, snap.GoldPrice, snap.DXYLevel)
	if err != nil {
		return fmt.Errorf("inserting snapshot: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) loadGeneration(gen string) (*models.AccountState, error) {
	state := &models.AccountState{}
	err := s.db.QueryRow(`
		SELECT schema_version, initial_capital, current_balance,
		       total_trades, winning_trades, losing_trades, total_pnl,
		       win_rate, largest_win, largest_loss, peak_balance, drawdown
		FROM accounts WHERE generation = ?`, gen).Scan(
		&state.SchemaVersion, &state.InitialCapital, &state.CurrentBalance,
		&state.Statistics.TotalTrades, &state.Statistics.WinningTrades,
		&state.Statistics.LosingTrades, &state.Statistics.TotalPnL,
		&state.Statistics.WinRate, &state.Statistics.LargestWin,
		&state.Statistics.LargestLoss, &state.Statistics.PeakBalance,
		&state.Statistics.Drawdown)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading account row: %w", err)
	}

	rows, err := s.db.Query(`
		SELECT trade_id, signal, entry_price, exit_price, position_size,
		       pnl, date_opened, date_closed, close_reason, recorded_at
		FROM trades WHERE generation = ? ORDER BY trade_id`, gen)
	if err != nil {
		return nil, fmt.Errorf("reading trades: %w", err)
	}
	defer rows.Close()

	state.Trades = []models.Trade{}
	for rows.Next() {
		var t models.Trade
		var sig string
		if err := rows.Scan(&t.ID, &sig, &t.EntryPrice, &t.ExitPrice,
			&t.PositionSize, &t.PnL, &t.DateOpened, &t.DateClosed,
			&t.CloseReason, &t.RecordedAt); err != nil {
			return nil, fmt.Errorf("scanning trade: %w", err)
		}
		t.Signal = models.Signal(sig)
		state.Trades = append(state.Trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating trades: %w", err)
	}

	eventRows, err := s.db.Query(`
		SELECT timestamp, balance, delta, event
		FROM balance_events WHERE generation = ? ORDER BY seq`, gen)
	if err != nil {
		return nil, fmt.Errorf("reading balance events: %w", err)
	}
	defer eventRows.Close()

	state.BalanceHistory = []models.BalanceEvent{}
	for eventRows.Next() {
		var e models.BalanceEvent
		if err := eventRows.Scan(&e.Timestamp, &e.Balance, &e.Delta, &e.Event); err != nil {
			return nil, fmt.Errorf("scanning balance event: %w", err)
		}
		state.BalanceHistory = append(state.BalanceHistory, e)
	}
	if err := eventRows.Err(); err != nil {
		return nil, fmt.Errorf("iterating balance events: %w", err)
	}

	return state, nil
}

func deleteGeneration(tx *sql.Tx, gen string) error {
	for _, table := range []string{"accounts", "trades", "balance_events"} {
		if _, err := tx.Exec("DELETE FROM "+table+" WHERE generation = ?", gen); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}
	return nil
}

func insertGeneration(tx *sql.Tx, gen string, state *models.AccountState) error {
	_, err := tx.Exec(`
		INSERT INTO accounts (generation, schema_version, initial_capital, current_balance,
			total_trades, winning_trades, losing_trades, total_pnl,
			win_rate, largest_win, largest_loss, peak_balance, drawdown, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		gen, state.SchemaVersion, state.InitialCapital, state.CurrentBalance,
		state.Statistics.TotalTrades, state.Statistics.WinningTrades,
		state.Statistics.LosingTrades, state.Statistics.TotalPnL,
		state.Statistics.WinRate, state.Statistics.LargestWin,
		state.Statistics.LargestLoss, state.Statistics.PeakBalance,
		state.Statistics.Drawdown, time.Now())
	if err != nil {
		return fmt.Errorf("inserting account row: %w", err)
	}

	for _, t := range state.Trades {
		_, err := tx.Exec(`
			INSERT INTO trades (generation, trade_id, signal, entry_price, exit_price,
				position_size, pnl, date_opened, date_closed, close_reason, recorded_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			gen, t.ID, string(t.Signal), t.EntryPrice, t.ExitPrice,
			t.PositionSize, t.PnL, t.DateOpened, t.DateClosed,
			t.CloseReason, t.RecordedAt)
		if err != nil {
			return fmt.Errorf("inserting trade %d: %w", t.ID, err)
		}
	}

	for i, e := range state.BalanceHistory {
		_, err := tx.Exec(`
			INSERT INTO balance_events (generation, seq, timestamp, balance, delta, event)
			VALUES (?, ?, ?, ?, ?, ?)`,
			gen, i, e.Timestamp, e.Balance, e.Delta, e.Event)
		if err != nil {
			return fmt.Errorf("inserting balance event %d: %w", i, err)
		}
	}

	return nil
}
