package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/wealth-query-agent/internal/model"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// Supported SQL drivers
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// SQLConfig locates the investments table
type SQLConfig struct {
	Driver  string
	DSN     string
	Timeout time.Duration
}

// SQLTransactionStore reads investment records from the investments table
// of a MySQL or SQLite database.
type SQLTransactionStore struct {
	db      *sql.DB
	driver  string
	timeout time.Duration
	logger  *zap.Logger
}

var schemas = map[string][]string{
	DriverMySQL: {
		`CREATE TABLE IF NOT EXISTS investments (
			id INT AUTO_INCREMENT PRIMARY KEY,
			client_id VARCHAR(10) NOT NULL,
			portfolio_value BIGINT NOT NULL,
			relationship_manager VARCHAR(100) NOT NULL,
			investment_type VARCHAR(50) NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			INDEX idx_client_id (client_id),
			INDEX idx_rm (relationship_manager)
		)`,
	},
	DriverSQLite: {
		`CREATE TABLE IF NOT EXISTS investments (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			client_id TEXT NOT NULL,
			portfolio_value INTEGER NOT NULL,
			relationship_manager TEXT NOT NULL,
			investment_type TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_client_id ON investments(client_id)`,
		`CREATE INDEX IF NOT EXISTS idx_rm ON investments(relationship_manager)`,
	},
}

const (
	recentQuery = `SELECT client_id, portfolio_value, relationship_manager, investment_type, created_at
		FROM investments
		ORDER BY portfolio_value DESC
		LIMIT ?`

	managerPerformanceQuery = `SELECT relationship_manager,
			COUNT(DISTINCT client_id) AS client_count,
			SUM(portfolio_value) AS total_managed,
			AVG(portfolio_value) AS avg_portfolio
		FROM investments
		GROUP BY relationship_manager
		ORDER BY total_managed DESC`

	portfolioSummaryQuery = `SELECT client_id, relationship_manager,
			SUM(portfolio_value) AS total_value,
			COUNT(*) AS investment_count
		FROM investments
		GROUP BY client_id, relationship_manager
		ORDER BY total_value DESC`

	insertQuery = `INSERT INTO investments (client_id, portfolio_value, relationship_manager, investment_type, created_at)
		VALUES (?, ?, ?, ?, ?)`
)

// NewSQLTransactionStore opens the database and verifies the connection.
// The schema is not created; call InitSchema for that.
func NewSQLTransactionStore(ctx context.Context, cfg SQLConfig, logger *zap.Logger) (*SQLTransactionStore, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if _, ok := schemas[driver]; !ok {
		return nil, fmt.Errorf("unsupported sql driver %q", cfg.Driver)
	}
	if cfg.DSN == "" {
		return nil, ErrNotConnected
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// Each connection to an in-memory database is a separate database.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	logger.Info("Connected to transaction store", zap.String("driver", driver))

	return &SQLTransactionStore{
		db:      db,
		driver:  driver,
		timeout: cfg.Timeout,
		logger:  logger.Named("sql"),
	}, nil
}

// InitSchema creates the investments table and its indexes when missing
func (s *SQLTransactionStore) InitSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return ErrNotConnected
	}
	for _, stmt := range schemas[s.driver] {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	s.logger.Info("Investments table created/verified")
	return nil
}

// Recent returns the highest-value investment records, unfiltered.
func (s *SQLTransactionStore) Recent(ctx context.Context, limit int) ([]model.Transaction, error) {
	if s == nil || s.db == nil {
		return nil, ErrNotConnected
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, recentQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("query investments: %w", err)
	}
	defer rows.Close()

	var txns []model.Transaction
	for rows.Next() {
		var t model.Transaction
		var created interface{}
		if err := rows.Scan(&t.ClientID, &t.PortfolioValue, &t.RelationshipManager, &t.InvestmentType, &created); err != nil {
			return nil, fmt.Errorf("scan investment: %w", err)
		}
		t.PortfolioValue = model.NonNegative(t.PortfolioValue)
		t.CreatedAt = parseTimestamp(created)
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate investments: %w", err)
	}
	return txns, nil
}

// ManagerPerformance returns per-manager client counts and managed totals
func (s *SQLTransactionStore) ManagerPerformance(ctx context.Context) ([]ManagerPerformance, error) {
	if s == nil || s.db == nil {
		return nil, ErrNotConnected
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, managerPerformanceQuery)
	if err != nil {
		return nil, fmt.Errorf("query manager performance: %w", err)
	}
	defer rows.Close()

	var out []ManagerPerformance
	for rows.Next() {
		var m ManagerPerformance
		if err := rows.Scan(&m.RelationshipManager, &m.ClientCount, &m.TotalManaged, &m.AveragePortfolio); err != nil {
			return nil, fmt.Errorf("scan manager performance: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// PortfolioSummary returns per-client totals
func (s *SQLTransactionStore) PortfolioSummary(ctx context.Context) ([]ClientTotal, error) {
	if s == nil || s.db == nil {
		return nil, ErrNotConnected
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, portfolioSummaryQuery)
	if err != nil {
		return nil, fmt.Errorf("query portfolio summary: %w", err)
	}
	defer rows.Close()

	var out []ClientTotal
	for rows.Next() {
		var c ClientTotal
		if err := rows.Scan(&c.ClientID, &c.RelationshipManager, &c.TotalValue, &c.InvestmentCount); err != nil {
			return nil, fmt.Errorf("scan portfolio summary: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// SeedIfEmpty inserts txns in one transaction when the table has no rows.
func (s *SQLTransactionStore) SeedIfEmpty(ctx context.Context, txns []model.Transaction) (int, error) {
	if s == nil || s.db == nil {
		return 0, ErrNotConnected
	}

	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM investments`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count investments: %w", err)
	}
	if count > 0 {
		s.logger.Info("Found existing investment records", zap.Int64("count", count))
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertQuery)
	if err != nil {
		return 0, fmt.Errorf("prepare seed: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Truncate(time.Second)
	for _, t := range txns {
		created := t.CreatedAt
		if created.IsZero() {
			created = now
		}
		if _, err := stmt.ExecContext(ctx, t.ClientID, model.NonNegative(t.PortfolioValue), t.RelationshipManager, t.InvestmentType, created); err != nil {
			return 0, fmt.Errorf("insert investment %s: %w", t.ClientID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit seed: %w", err)
	}

	s.logger.Info("Inserted sample investment records", zap.Int("count", len(txns)))
	return len(txns), nil
}

func (s *SQLTransactionStore) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return ErrNotConnected
	}
	return s.db.PingContext(ctx)
}

func (s *SQLTransactionStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05",
}

// parseTimestamp accepts the created_at representations returned by the
// supported drivers; unparseable values become the zero time.
func parseTimestamp(v interface{}) time.Time {
	var s string
	switch t := v.(type) {
	case time.Time:
		return t
	case []byte:
		s = string(t)
	case string:
		s = t
	default:
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts
		}
	}
	return time.Time{}
}
