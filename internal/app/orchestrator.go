package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"html-grader/internal/checksum"
	"html-grader/internal/config"
	"html-grader/internal/fetcher"
	"html-grader/internal/grader"
	"html-grader/internal/observability"
	"html-grader/internal/storage"
)

// Source описывает, откуда брать HTML: URL имеет приоритет над файлом
type Source struct {
	File string
	URL  string
}

func (s Source) kind() string {
	if s.URL != "" {
		return storage.SourceURL
	}
	return storage.SourceFile
}

func (s Source) String() string {
	if s.URL != "" {
		return s.URL
	}
	return s.File
}

type PageRenderer interface {
	Render(ctx context.Context, url string) ([]byte, error)
}

type Orchestrator struct {
	cfg      *config.Config
	logger   *observability.Logger
	fetcher  *fetcher.Fetcher
	renderer PageRenderer
	repo     storage.Repository
	checksum *checksum.Generator
	now      func() time.Time
}

// NewOrchestrator собирает пайплайн. renderer и repo могут быть nil.
func NewOrchestrator(
	cfg *config.Config,
	logger *observability.Logger,
	f *fetcher.Fetcher,
	renderer PageRenderer,
	repo storage.Repository,
) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		logger:   logger,
		fetcher:  f,
		renderer: renderer,
		repo:     repo,
		checksum: checksum.NewGenerator(),
		now:      time.Now,
	}
}

// Run загружает HTML, проверяет селекторы и пишет JSON отчёт в out.
// При ошибке загрузки или разбора проверок в out ничего не пишется.
func (o *Orchestrator) Run(ctx context.Context, src Source, checksFile string, out io.Writer) (*grader.Result, error) {
	o.logger.Info("Starting check",
		"source", src.String(),
		"kind", src.kind(),
		"checks_file", checksFile,
	)

	checks, err := config.LoadChecks(checksFile)
	if err != nil {
		return nil, err
	}

	body, err := o.resolve(ctx, src)
	if err != nil {
		o.logger.Error("Failed to resolve HTML",
			"source", src.String(),
			"error", err.Error(),
		)
		return nil, err
	}

	result, err := grader.CheckPresence(body, checks)
	if err != nil {
		return nil, err
	}

	report, err := result.Format()
	if err != nil {
		return nil, fmt.Errorf("failed to format report: %w", err)
	}
	if _, err := out.Write(report); err != nil {
		return nil, fmt.Errorf("failed to write report: %w", err)
	}

	o.logger.Info("Check completed",
		"source", src.String(),
		"selectors", result.Len(),
		"matched", result.MatchedCount(),
	)

	if o.repo != nil {
		run := o.buildRun(src, checksFile, body, result)
		if err := o.repo.SaveRun(ctx, run); err != nil {
			// Отчёт уже выведен, история запусков не критична
			o.logger.Error("Failed to save run",
				"run_id", run.ID,
				"error", err.Error(),
			)
		} else if count, err := o.repo.CountRuns(ctx, run.Source); err != nil {
			o.logger.Warn("Failed to count runs",
				"source", run.Source,
				"error", err.Error(),
			)
		} else {
			o.logger.Debug("Run history updated",
				"run_id", run.ID,
				"runs_for_source", count,
			)
		}
	}

	return result, nil
}

func (o *Orchestrator) resolve(ctx context.Context, src Source) ([]byte, error) {
	if src.URL == "" {
		return fetcher.ReadLocalHTML(src.File)
	}

	if o.renderer != nil {
		return o.renderer.Render(ctx, src.URL)
	}

	resp, err := o.fetcher.Fetch(ctx, src.URL)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (o *Orchestrator) buildRun(src Source, checksFile string, body []byte, result *grader.Result) *storage.CheckRun {
	run := &storage.CheckRun{
		ID:          uuid.NewString(),
		SourceKind:  src.kind(),
		Source:      src.String(),
		ContentHash: o.checksum.GenerateContentHash(body),
		ChecksFile:  checksFile,
		CheckedAt:   o.now().UTC(),
		Results:     make([]storage.CheckResult, 0, result.Len()),
	}
	for _, e := range result.Entries() {
		run.Results = append(run.Results, storage.CheckResult{
			Selector: e.Selector,
			Present:  e.Present,
		})
	}
	return run
}
