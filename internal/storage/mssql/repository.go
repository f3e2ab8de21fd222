package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/microsoft/go-mssqldb"

	"html-grader/internal/observability"
	"html-grader/internal/storage"
)

type Repository struct {
	db             *sql.DB
	commandTimeout time.Duration
	logger         *observability.Logger
}

var _ storage.Repository = (*Repository)(nil)

func NewRepository(dsn string, commandTimeout time.Duration, logger *observability.Logger) (*Repository, error) {
	db, err := sql.Open("sqlserver", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Тестируем соединение
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return newRepository(db, commandTimeout, logger), nil
}

func newRepository(db *sql.DB, commandTimeout time.Duration, logger *observability.Logger) *Repository {
	return &Repository{
		db:             db,
		commandTimeout: commandTimeout,
		logger:         logger,
	}
}

// SaveRun сохраняет запуск и его результаты в одной транзакции
func (r *Repository) SaveRun(ctx context.Context, run *storage.CheckRun) (err error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				r.logger.Error("Failed to rollback transaction", "error", rbErr.Error())
			}
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO TblCheckRuns ([UID], [SourceKind], [Source], [ChecksFile], [ContentHash], [CheckedAt])
		VALUES (@UID, @SourceKind, @Source, @ChecksFile, @ContentHash, @CheckedAt);
	`,
		sql.Named("UID", run.ID),
		sql.Named("SourceKind", run.SourceKind),
		sql.Named("Source", run.Source),
		sql.Named("ChecksFile", run.ChecksFile),
		sql.Named("ContentHash", run.ContentHash),
		sql.Named("CheckedAt", run.CheckedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO TblCheckResults ([Run_UID], [Selector], [Present])
		VALUES (@RunUID, @Selector, @Present);
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() {
		if closeErr := stmt.Close(); closeErr != nil {
			r.logger.Error("Failed to close statement", "error", closeErr.Error())
		}
	}()

	for _, res := range run.Results {
		_, err = stmt.ExecContext(ctx,
			sql.Named("RunUID", run.ID),
			sql.Named("Selector", res.Selector),
			sql.Named("Present", res.Present),
		)
		if err != nil {
			return fmt.Errorf("failed to insert result for %q: %w", res.Selector, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}

	r.logger.Debug("Run saved",
		"run_id", run.ID,
		"source", run.Source,
		"results", len(run.Results),
	)

	return nil
}

// CountRuns возвращает количество сохранённых запусков для источника
func (r *Repository) CountRuns(ctx context.Context, source string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM TblCheckRuns WHERE Source = @Source`,
		sql.Named("Source", source),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to query database: %w", err)
	}

	return count, nil
}

// Close закрывает соединение с БД
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}
