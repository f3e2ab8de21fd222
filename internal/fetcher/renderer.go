package fetcher

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"html-grader/internal/config"
	"html-grader/internal/observability"
)

// Renderer загружает страницу в headless Chrome и отдаёт итоговый DOM.
// Нужен для страниц, где разметка собирается скриптами.
type Renderer struct {
	cfg    *config.Config
	logger *observability.Logger
}

func NewRenderer(cfg *config.Config, logger *observability.Logger) *Renderer {
	return &Renderer{cfg: cfg, logger: logger}
}

func (r *Renderer) Render(ctx context.Context, urlStr string) ([]byte, error) {
	l := launcher.New().Headless(true).Context(ctx)
	if r.cfg.Rod.ChromePath != "" {
		l = l.Bin(r.cfg.Rod.ChromePath)
	}
	defer l.Cleanup()

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to launch browser: %v", ErrFetch, err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("%w: failed to connect to browser: %v", ErrFetch, err)
	}
	defer func() {
		if err := browser.Close(); err != nil {
			r.logger.Warn("Failed to close browser", "error", err.Error())
		}
	}()

	page, err := browser.Page(proto.TargetCreateTarget{URL: urlStr})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open page: %v", ErrFetch, err)
	}

	page = page.Timeout(r.cfg.GetRodPageTimeout())
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("%w: page did not load: %v", ErrFetch, err)
	}

	html, err := page.HTML()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read page html: %v", ErrFetch, err)
	}

	r.logger.Debug("Page rendered", "url", urlStr, "body_size", len(html))

	return []byte(html), nil
}
