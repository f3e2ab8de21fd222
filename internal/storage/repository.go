package storage

import (
	"context"
	"time"
)

const (
	SourceFile = "file"
	SourceURL  = "url"
)

// CheckRun представляет один запуск проверки для сохранения в БД
type CheckRun struct {
	ID          string // UUID запуска
	SourceKind  string // SourceFile или SourceURL
	Source      string // путь к файлу или URL
	ContentHash string // SHA256 проверенного HTML
	ChecksFile  string
	CheckedAt   time.Time
	Results     []CheckResult
}

type CheckResult struct {
	Selector string
	Present  bool
}

// Repository интерфейс для журнала запусков
type Repository interface {
	// SaveRun сохраняет запуск и результаты по каждому селектору
	SaveRun(ctx context.Context, run *CheckRun) error

	// CountRuns возвращает количество сохранённых запусков для источника
	CountRuns(ctx context.Context, source string) (int, error)

	Close() error
}
