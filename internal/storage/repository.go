package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"spaar/internal/core"
	"spaar/internal/log"

	_ "modernc.org/sqlite"
)

const timeLayout = time.RFC3339Nano

type SQLiteRepository struct {
	db     *sql.DB
	logger *log.Logger
}

func NewSQLiteRepository(dbPath string, logger *log.Logger) (*SQLiteRepository, error) {
	if logger == nil {
		logger = log.Discard()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows a single writer; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	schema, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	logger = logger.WithComponent(log.ComponentStorage)
	logger.Info("SQLite schema ready", "path", dbPath, "schema_version", schema.Version, "migrated", schema.Applied)

	return &SQLiteRepository{
		db:     db,
		logger: logger,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// SaveTransactions inserts the batch atomically.
func (r *SQLiteRepository) SaveTransactions(ctx context.Context, batchID string, txs []core.Transaction) error {
	for _, tx := range txs {
		if err := tx.Validate(); err != nil {
			return fmt.Errorf("transaction %s: %w", tx.ID, err)
		}
	}

	err := r.inTx(ctx, func(dbtx *sql.Tx) error {
		stmt, err := dbtx.PrepareContext(ctx, `
			INSERT INTO transactions (
				id, batch_id, description, amount, date, transaction_type, category_id,
				account_number, account_holder, balance_after, notes, tags,
				is_recurring, recurring_frequency, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, tx := range txs {
			tags, err := json.Marshal(nonNil(tx.Tags))
			if err != nil {
				return fmt.Errorf("encode tags: %w", err)
			}
			var balance sql.NullString
			if tx.BalanceAfter != nil {
				balance = sql.NullString{String: tx.BalanceAfter.String(), Valid: true}
			}
			_, err = stmt.ExecContext(ctx,
				tx.ID, batchID, tx.Description, tx.Amount.String(), tx.Date.UTC().Format(timeLayout),
				string(tx.Direction), nullString(tx.CategoryID),
				tx.AccountNumber, tx.AccountHolder, balance, tx.Notes, string(tags),
				tx.IsRecurring, string(tx.Frequency), tx.CreatedAt.UTC().Format(timeLayout),
			)
			if err != nil {
				return fmt.Errorf("insert transaction %s: %w", tx.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.logger.InfoContext(ctx, "Transactions saved to SQLite",
		log.FieldBatchID, batchID,
		log.FieldImported, len(txs))
	return nil
}

func (r *SQLiteRepository) Snapshot(ctx context.Context) (core.Snapshot, error) {
	txs, err := r.listTransactions(ctx)
	if err != nil {
		return core.Snapshot{}, err
	}
	cats, err := r.ListCategories(ctx)
	if err != nil {
		return core.Snapshot{}, err
	}
	budgets, err := r.listBudgets(ctx)
	if err != nil {
		return core.Snapshot{}, err
	}
	return core.Snapshot{Transactions: txs, Categories: cats, Budgets: budgets}, nil
}

func (r *SQLiteRepository) listTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, description, amount, date, transaction_type, category_id,
		       account_number, account_holder, balance_after, notes, tags,
		       is_recurring, recurring_frequency, created_at
		FROM transactions
		ORDER BY date, rowid`)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	out := []core.Transaction{}
	for rows.Next() {
		var (
			tx                    core.Transaction
			amount, date, created string
			direction, freq, tags string
			category, balance     sql.NullString
		)
		if err := rows.Scan(&tx.ID, &tx.Description, &amount, &date, &direction, &category,
			&tx.AccountNumber, &tx.AccountHolder, &balance, &tx.Notes, &tags,
			&tx.IsRecurring, &freq, &created); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if tx.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("transaction %s amount: %w", tx.ID, err)
		}
		if tx.Date, err = time.Parse(timeLayout, date); err != nil {
			return nil, fmt.Errorf("transaction %s date: %w", tx.ID, err)
		}
		if tx.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			return nil, fmt.Errorf("transaction %s created_at: %w", tx.ID, err)
		}
		if balance.Valid {
			b, err := decimal.NewFromString(balance.String)
			if err != nil {
				return nil, fmt.Errorf("transaction %s balance: %w", tx.ID, err)
			}
			tx.BalanceAfter = &b
		}
		if err := json.Unmarshal([]byte(tags), &tx.Tags); err != nil {
			return nil, fmt.Errorf("transaction %s tags: %w", tx.ID, err)
		}
		tx.Tags = nonNil(tx.Tags)
		tx.Direction = core.Direction(direction)
		tx.Frequency = core.Frequency(freq)
		tx.CategoryID = fromNull(category)
		out = append(out, tx)
	}
	return out, rows.Err()
}

// ReplaceInsights deletes the previous set and inserts the new one in a
// single SQL transaction.
func (r *SQLiteRepository) ReplaceInsights(ctx context.Context, insights []core.FinancialInsight) error {
	return r.inTx(ctx, func(dbtx *sql.Tx) error {
		if _, err := dbtx.ExecContext(ctx, `DELETE FROM insights`); err != nil {
			return fmt.Errorf("clear insights: %w", err)
		}
		for i, in := range insights {
			sugg, err := json.Marshal(nonNil(in.Suggestions))
			if err != nil {
				return fmt.Errorf("encode suggestions: %w", err)
			}
			_, err = dbtx.ExecContext(ctx, `
				INSERT INTO insights (id, position, insight_type, title, description, impact,
				                      actionable, action_suggestions, confidence_score, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				in.ID, i, string(in.Kind), in.Title, in.Description, string(in.Impact),
				in.Actionable, string(sugg), in.Confidence, in.CreatedAt.UTC().Format(timeLayout))
			if err != nil {
				return fmt.Errorf("insert insight %s: %w", in.ID, err)
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) ListInsights(ctx context.Context) ([]core.FinancialInsight, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, insight_type, title, description, impact, actionable,
		       action_suggestions, confidence_score, created_at
		FROM insights
		ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query insights: %w", err)
	}
	defer rows.Close()

	out := []core.FinancialInsight{}
	for rows.Next() {
		var (
			in                 core.FinancialInsight
			kind, impact, sugg string
			created            string
		)
		if err := rows.Scan(&in.ID, &kind, &in.Title, &in.Description, &impact, &in.Actionable,
			&sugg, &in.Confidence, &created); err != nil {
			return nil, fmt.Errorf("scan insight: %w", err)
		}
		if err := json.Unmarshal([]byte(sugg), &in.Suggestions); err != nil {
			return nil, fmt.Errorf("insight %s suggestions: %w", in.ID, err)
		}
		if in.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			return nil, fmt.Errorf("insight %s created_at: %w", in.ID, err)
		}
		in.Kind = core.InsightKind(kind)
		in.Impact = core.Impact(impact)
		out = append(out, in)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) AssignCategory(ctx context.Context, txID string, categoryID *string) error {
	if categoryID != nil {
		var exists int
		err := r.db.QueryRowContext(ctx, `SELECT 1 FROM categories WHERE id = ?`, *categoryID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("category %s: %w", *categoryID, core.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("lookup category: %w", err)
		}
	}

	res, err := r.db.ExecContext(ctx, `UPDATE transactions SET category_id = ? WHERE id = ?`,
		nullString(categoryID), txID)
	if err != nil {
		return fmt.Errorf("assign category: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("transaction %s: %w", txID, core.ErrNotFound)
	}
	return nil
}

// SaveBudget upserts by id. Spent is stored as given; services recompute it
// before saving.
func (r *SQLiteRepository) SaveBudget(ctx context.Context, b core.Budget) error {
	if b.ID == "" {
		return errors.New("budget id is required")
	}
	var end sql.NullString
	if b.EndDate != nil {
		end = sql.NullString{String: b.EndDate.UTC().Format(timeLayout), Valid: true}
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO budgets (id, name, category_id, amount, period, spent, is_active, start_date, end_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			category_id = excluded.category_id,
			amount = excluded.amount,
			period = excluded.period,
			spent = excluded.spent,
			is_active = excluded.is_active,
			start_date = excluded.start_date,
			end_date = excluded.end_date`,
		b.ID, b.Name, nullString(b.CategoryID), b.Amount.String(), string(b.Period), b.Spent.String(),
		b.IsActive, b.StartDate.UTC().Format(timeLayout), end)
	if err != nil {
		return fmt.Errorf("save budget %s: %w", b.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context) ([]core.Budget, error) {
	return r.listBudgets(ctx)
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete budget %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete budget %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("budget %s: %w", id, core.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) listBudgets(ctx context.Context) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, category_id, amount, period, spent, is_active, start_date, end_date
		FROM budgets
		ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query budgets: %w", err)
	}
	defer rows.Close()

	out := []core.Budget{}
	for rows.Next() {
		var (
			b                     core.Budget
			category, end         sql.NullString
			amount, spent, period string
			start                 string
		)
		if err := rows.Scan(&b.ID, &b.Name, &category, &amount, &period, &spent, &b.IsActive, &start, &end); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		if b.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("budget %s amount: %w", b.ID, err)
		}
		if b.Spent, err = decimal.NewFromString(spent); err != nil {
			return nil, fmt.Errorf("budget %s spent: %w", b.ID, err)
		}
		if b.StartDate, err = time.Parse(timeLayout, start); err != nil {
			return nil, fmt.Errorf("budget %s start_date: %w", b.ID, err)
		}
		if end.Valid {
			t, err := time.Parse(timeLayout, end.String)
			if err != nil {
				return nil, fmt.Errorf("budget %s end_date: %w", b.ID, err)
			}
			b.EndDate = &t
		}
		b.Period = core.BudgetPeriod(period)
		b.CategoryID = fromNull(category)
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, parent_id, is_system, budget_percentage
		FROM categories
		ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	out := []core.Category{}
	for rows.Next() {
		var (
			c             core.Category
			parent, share sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.Name, &parent, &c.IsSystem, &share); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.ParentID = fromNull(parent)
		if share.Valid {
			d, err := decimal.NewFromString(share.String)
			if err != nil {
				return nil, fmt.Errorf("category %s budget share: %w", c.ID, err)
			}
			c.BudgetShare = &d
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) SaveCategory(ctx context.Context, c core.Category) error {
	if err := c.Validate(); err != nil {
		return err
	}
	var share sql.NullString
	if c.BudgetShare != nil {
		share = sql.NullString{String: c.BudgetShare.String(), Valid: true}
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO categories (id, name, parent_id, is_system, budget_percentage)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			parent_id = excluded.parent_id,
			budget_percentage = excluded.budget_percentage`,
		c.ID, c.Name, nullString(c.ParentID), c.IsSystem, share)
	if err != nil {
		return fmt.Errorf("save category %s: %w", c.ID, err)
	}
	return nil
}

// DeleteCategory removes a user category and clears it from transactions
// and budgets.
func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id string) error {
	return r.inTx(ctx, func(dbtx *sql.Tx) error {
		var system bool
		err := dbtx.QueryRowContext(ctx, `SELECT is_system FROM categories WHERE id = ?`, id).Scan(&system)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("category %s: %w", id, core.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("lookup category: %w", err)
		}
		if system {
			return fmt.Errorf("category %s: %w", id, core.ErrSystemCategory)
		}
		for _, q := range []string{
			`UPDATE transactions SET category_id = NULL WHERE category_id = ?`,
			`UPDATE budgets SET category_id = NULL WHERE category_id = ?`,
			`DELETE FROM categories WHERE id = ?`,
		} {
			if _, err := dbtx.ExecContext(ctx, q, id); err != nil {
				return fmt.Errorf("delete category %s: %w", id, err)
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	dbtx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(dbtx); err != nil {
		_ = dbtx.Rollback()
		return err
	}
	if err := dbtx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func fromNull(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
