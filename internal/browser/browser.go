// Package browser runs a single headless Chrome session used to render
// quote pages.
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"lsequote/internal/provider"
)

type Config struct {
	Headless  bool
	ExecPath  string
	UserAgent string
	Locale    string
	// WaitSelector must be present in the DOM before the page is read.
	WaitSelector string
	PageTimeout  time.Duration
}

// Session owns one browser process and one tab. It is not safe for
// concurrent use; pages are loaded one after another.
type Session struct {
	cfg Config
	log *zap.Logger

	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	closeOnce   sync.Once
}

// Open starts the browser. The session outlives ctx only until Close is
// called or ctx is canceled.
func Open(ctx context.Context, cfg Config, log *zap.Logger) (*Session, error) {
	if cfg.PageTimeout <= 0 {
		cfg.PageTimeout = 30 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("browser")

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocatorOptions(cfg)...)
	sugar := log.Sugar()
	tabCtx, cancelTab := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(sugar.Debugf),
		chromedp.WithErrorf(sugar.Debugf),
	)

	s := &Session{cfg: cfg, log: log, ctx: tabCtx, cancelTab: cancelTab, cancelAlloc: cancelAlloc}
	// An empty Run launches the browser and opens the tab.
	if err := chromedp.Run(tabCtx); err != nil {
		s.Close()
		return nil, fmt.Errorf("start browser: %w", err)
	}
	log.Info("browser started", zap.Bool("headless", cfg.Headless), zap.String("locale", cfg.Locale))
	return s, nil
}

func allocatorOptions(cfg Config) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts, chromedp.Flag("headless", cfg.Headless))
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	if cfg.Locale != "" {
		opts = append(opts, chromedp.Flag("lang", cfg.Locale))
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	return opts
}

// Load navigates the tab to url, waits up to PageTimeout for WaitSelector
// and returns the rendered document.
func (s *Session) Load(ctx context.Context, url string) (provider.Page, error) {
	tctx, cancel := context.WithTimeout(s.ctx, s.cfg.PageTimeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	page := provider.Page{URL: url}
	resp, err := chromedp.RunResponse(tctx, chromedp.Navigate(url))
	if err != nil {
		return page, &provider.NavigationError{URL: url, Err: navErr(ctx, err)}
	}
	if resp != nil {
		page.Status = int(resp.Status)
	}

	actions := make([]chromedp.Action, 0, 2)
	if s.cfg.WaitSelector != "" {
		actions = append(actions, chromedp.WaitReady(s.cfg.WaitSelector, chromedp.ByQuery))
	}
	actions = append(actions, chromedp.OuterHTML("html", &page.HTML, chromedp.ByQuery))
	if err := chromedp.Run(tctx, actions...); err != nil {
		return page, &provider.NavigationError{URL: url, Status: page.Status, Err: navErr(ctx, err)}
	}
	return page, nil
}

// navErr prefers the caller's cancellation over the page timeout.
func navErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// Close shuts the tab and the browser process. It is safe to call more
// than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		if s.ctx != nil {
			if err := chromedp.Cancel(s.ctx); err != nil && !errors.Is(err, context.Canceled) {
				s.log.Debug("close tab", zap.Error(err))
			}
		}
		s.cancelTab()
		s.cancelAlloc()
		s.log.Info("browser stopped")
	})
	return nil
}
