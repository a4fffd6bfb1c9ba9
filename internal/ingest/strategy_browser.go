package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"
)

// BrowserStrategy renders JavaScript-heavy portals in headless Chromium
// before handing the settled DOM to the same option extractor the plain
// scrape strategy uses. Only platforms whose listings are built
// client-side pay the browser cost.
type BrowserStrategy struct {
	// SettleDelay is how long to wait after load for client-side
	// rendering to fill the event dropdowns.
	SettleDelay time.Duration
}

func (s *BrowserStrategy) Run(ctx context.Context, cfg PlatformConfig, p *Pipeline) (SourceStream, error) {
	stream := SourceStream{Platform: cfg.ID}
	if len(cfg.DiscoverURLs) == 0 {
		return stream, fmt.Errorf("%s: no discover_urls configured", cfg.ID)
	}

	settle := s.SettleDelay
	if settle == 0 {
		settle = 3 * time.Second
	}

	browser, cleanup, err := launchBrowser(ctx)
	if err != nil {
		return stream, fmt.Errorf("%s: launch browser: %w", cfg.ID, err)
	}
	defer cleanup()

	norm := NewNormalizer(cfg.ID, cfg.Fields)
	seen := make(map[string]bool)

	for _, pageURL := range cfg.DiscoverURLs {
		select {
		case <-ctx.Done():
			return stream, ctx.Err()
		default:
		}

		html, err := renderPage(ctx, browser, pageURL, settle)
		if err != nil {
			log.Printf("[%s] render %s: %v", cfg.ID, pageURL, err)
			continue
		}

		doc := &FetchedDocument{
			URL:         pageURL,
			StatusCode:  200,
			ContentType: "text/html",
			Body:        io.NopCloser(bytes.NewReader([]byte(html))),
			FetchedAt:   time.Now(),
		}
		events, err := extractOptionEvents(norm, doc, seen)
		if err != nil {
			return stream, err
		}

		log.Printf("[%s] render %s: %d events", cfg.ID, pageURL, len(events))
		stream.Events = append(stream.Events, events...)
	}

	return stream, nil
}

// launchBrowser starts a headless Chromium instance tied to ctx.
func launchBrowser(ctx context.Context) (*rod.Browser, func(), error) {
	l := launcher.New().Headless(true).NoSandbox(true)
	controlURL, err := l.Launch()
	if err != nil {
		return nil, nil, err
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return nil, nil, err
	}

	cleanup := func() {
		browser.Close()
		l.Cleanup()
	}
	return browser, cleanup, nil
}

// renderPage navigates a stealth page to pageURL and returns the outer
// HTML once the page has loaded and settled. The stealth profile keeps
// portals with naive bot checks from serving an empty shell.
func renderPage(ctx context.Context, browser *rod.Browser, pageURL string, settle time.Duration) (string, error) {
	page, err := stealth.Page(browser)
	if err != nil {
		return "", fmt.Errorf("create page: %w", err)
	}
	defer page.Close()

	page = page.Context(ctx)
	if err := page.Navigate(pageURL); err != nil {
		return "", fmt.Errorf("navigate: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return "", fmt.Errorf("wait load: %w", err)
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(settle):
	}

	result, err := page.Eval("() => document.documentElement.outerHTML")
	if err != nil {
		return "", fmt.Errorf("read DOM: %w", err)
	}
	return result.Value.Str(), nil
}
