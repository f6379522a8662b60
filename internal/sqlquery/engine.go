package sqlquery

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/ragsearch/internal/database"
	"github.com/hyperjump/ragsearch/internal/metrics"
	"github.com/hyperjump/ragsearch/internal/models"
)

// Engine translates questions to SQL and executes them on a database.
type Engine struct {
	translator *Translator
	db         database.Querier
	table      string
	timeout    time.Duration
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMetrics records question latency.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithTimeout bounds translation and execution of one question.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

// WithTable names the table reported by Schema.
func WithTable(name string) Option {
	return func(e *Engine) { e.table = name }
}

// NewEngine creates an engine. The engine does not own db.
func NewEngine(translator *Translator, db database.Querier, opts ...Option) *Engine {
	e := &Engine{translator: translator, db: db, logger: zap.NewNop()}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Ask translates question to SQL and returns the statement with its result rows.
func (e *Engine) Ask(ctx context.Context, question string) (resp *models.SQLResponse, err error) {
	start := time.Now()
	defer func() { e.metrics.ObserveOp("sql", time.Since(start), err) }()

	q := models.SQLQuery{Query: question}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	sql, err := e.translator.Translate(ctx, question)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("generated sql", zap.String("question", question), zap.String("sql", sql))

	res, err := e.db.Query(ctx, sql)
	if err != nil {
		return nil, &QueryError{SQL: sql, Err: err}
	}
	return &models.SQLResponse{
		Query:   question,
		SQL:     sql,
		Columns: res.Columns,
		Rows:    res.Rows,
	}, nil
}

// Schema lists the columns of the configured table.
func (e *Engine) Schema(ctx context.Context) ([]string, error) {
	if e.table == "" {
		return nil, fmt.Errorf("no table configured")
	}
	return e.db.Columns(ctx, e.table)
}

// QueryError reports generated SQL the database rejected.
type QueryError struct {
	SQL string
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("failed to run generated sql %q: %v", e.SQL, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }
