package rod

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"net/url"
	"strings"
	"time"

	"browsegpt/internal/application/port/output"
	"browsegpt/internal/domain/entity"

	"github.com/disintegration/imaging"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"
)

var _ output.BrowserPort = (*BrowserAdapter)(nil)

const (
	providerName = "remote browser"

	defaultLoadTimeout     = 10 * time.Second
	defaultSettleDelay     = 500 * time.Millisecond
	defaultScreenshotWidth = 1024

	resultSelector = ".g"
)

// extractResultsJS collects title and snippet of every result container.
const extractResultsJS = `() => Array.from(document.querySelectorAll('.g')).map(item => ({
	title: item.querySelector('h3')?.textContent || '',
	description: item.querySelector('.VwiC3b')?.textContent || '',
}))`

type BrowserConfig struct {
	// ConnectURL is the remote-control endpoint; apiKey and sessionId are
	// added as query parameters.
	ConnectURL        string
	APIKey            string
	SearchURLTemplate string
	LoadTimeout       time.Duration
	SettleDelay       time.Duration
	ScreenshotWidth   int
	Logger            output.LoggerPort
}

func DefaultConfig(apiKey string) BrowserConfig {
	return BrowserConfig{
		ConnectURL:        "wss://connect.browserbase.com",
		APIKey:            apiKey,
		SearchURLTemplate: "https://www.google.com/search?q=%s",
		LoadTimeout:       defaultLoadTimeout,
		SettleDelay:       defaultSettleDelay,
		ScreenshotWidth:   defaultScreenshotWidth,
	}
}

// BrowserAdapter attaches to remote sessions over CDP. It keeps no
// connection between calls and never closes the remote browser: dropping the
// connection is done by cancelling the context it was opened with.
type BrowserAdapter struct {
	cfg    BrowserConfig
	logger output.LoggerPort
}

func NewBrowserAdapter(cfg BrowserConfig) *BrowserAdapter {
	if cfg.LoadTimeout <= 0 {
		cfg.LoadTimeout = defaultLoadTimeout
	}
	if cfg.SettleDelay < 0 {
		cfg.SettleDelay = 0
	}
	if cfg.ScreenshotWidth <= 0 {
		cfg.ScreenshotWidth = defaultScreenshotWidth
	}
	return &BrowserAdapter{cfg: cfg, logger: cfg.Logger}
}

// ControlURL returns the remote-control endpoint of a session.
func (b *BrowserAdapter) ControlURL(sessionID string) (string, error) {
	u, err := url.Parse(b.cfg.ConnectURL)
	if err != nil {
		return "", fmt.Errorf("parse connect url: %w", err)
	}
	q := u.Query()
	q.Set("apiKey", b.cfg.APIKey)
	q.Set("sessionId", sessionID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// SearchURL percent-encodes the query into the search template.
func (b *BrowserAdapter) SearchURL(query string) string {
	return fmt.Sprintf(b.cfg.SearchURLTemplate, url.QueryEscape(query))
}

func (b *BrowserAdapter) Search(ctx context.Context, sessionID, query string) ([]entity.SearchResult, error) {
	var results []entity.SearchResult

	err := b.withPage(ctx, sessionID, func(page *rod.Page) error {
		target := b.SearchURL(query)
		b.debug("Navigating to search page", "url", target)
		if err := page.Navigate(target); err != nil {
			return fmt.Errorf("navigate to %s: %w", target, err)
		}

		if err := sleep(ctx, b.cfg.SettleDelay); err != nil {
			return err
		}

		// Submitting again covers result pages that do not render from the
		// URL alone.
		if err := page.Keyboard.Press(input.Enter); err != nil {
			return fmt.Errorf("press enter: %w", err)
		}

		if err := page.Timeout(b.cfg.LoadTimeout).WaitLoad(); err != nil {
			return fmt.Errorf("wait for load: %w", err)
		}

		if _, err := page.Timeout(b.cfg.LoadTimeout).Element(resultSelector); err != nil {
			if !resultsMissing(ctx, err) {
				return fmt.Errorf("wait for results: %w", err)
			}
			b.debug("No result containers found", "selector", resultSelector)
			results = []entity.SearchResult{}
			return nil
		}

		obj, err := page.Eval(extractResultsJS)
		if err != nil {
			return fmt.Errorf("extract results: %w", err)
		}
		results, err = decodeSearchResults(obj.Value)
		return err
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (b *BrowserAdapter) PageContent(ctx context.Context, sessionID, target string) (*entity.PageContent, error) {
	var content *entity.PageContent

	err := b.withPage(ctx, sessionID, func(page *rod.Page) error {
		if err := page.Navigate(target); err != nil {
			return fmt.Errorf("navigate to %s: %w", target, err)
		}
		if err := page.Timeout(b.cfg.LoadTimeout).WaitLoad(); err != nil {
			return fmt.Errorf("wait for load: %w", err)
		}

		html, err := page.HTML()
		if err != nil {
			return fmt.Errorf("get html: %w", err)
		}

		content = &entity.PageContent{URL: target, HTML: html}
		if info, err := page.Info(); err == nil {
			content.URL = info.URL
			content.Title = info.Title
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return content, nil
}

func (b *BrowserAdapter) Screenshot(ctx context.Context, sessionID string) (*entity.Screenshot, error) {
	var shot *entity.Screenshot

	err := b.withPage(ctx, sessionID, func(page *rod.Page) error {
		imgBytes, err := page.Screenshot(false, &proto.PageCaptureScreenshot{
			Format:  proto.PageCaptureScreenshotFormatJpeg,
			Quality: gson.Int(80),
		})
		if err != nil {
			return fmt.Errorf("screenshot failed: %w", err)
		}
		shot, err = resizeJPEG(imgBytes, b.cfg.ScreenshotWidth)
		return err
	})
	if err != nil {
		return nil, err
	}
	return shot, nil
}

// withPage connects to the session, picks its page and runs fn. The session
// is provisioned with exactly one page, so the first page target is used.
func (b *BrowserAdapter) withPage(ctx context.Context, sessionID string, fn func(page *rod.Page) error) error {
	controlURL, err := b.ControlURL(sessionID)
	if err != nil {
		return err
	}

	connCtx, disconnect := context.WithCancel(ctx)
	defer disconnect()

	browser := rod.New().ControlURL(controlURL).Context(connCtx)
	if err := browser.Connect(); err != nil {
		return &entity.ProviderError{Provider: providerName, Err: fmt.Errorf("connect to session %s: %w", sessionID, err)}
	}

	pages, err := browser.Pages()
	if err != nil {
		return &entity.ProviderError{Provider: providerName, Err: fmt.Errorf("list pages: %w", err)}
	}
	page := pages.First()
	if page == nil {
		return fmt.Errorf("session %s: %w", sessionID, entity.ErrNoPage)
	}

	if err := fn(page.Context(connCtx)); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return &entity.ProviderError{Provider: providerName, Err: err}
	}
	return nil
}

func (b *BrowserAdapter) debug(msg string, args ...any) {
	if b.logger != nil {
		b.logger.Debug(msg, args...)
	}
}

// resultsMissing reports whether waiting for result containers ran out of
// its own time budget. Any other failure, including the caller's context
// ending, is a provider error.
func resultsMissing(ctx context.Context, err error) bool {
	return errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil
}

func decodeSearchResults(value gson.JSON) ([]entity.SearchResult, error) {
	results := []entity.SearchResult{}
	if value.Nil() {
		return results, nil
	}
	if err := value.Unmarshal(&results); err != nil {
		return nil, fmt.Errorf("decode results: %w", err)
	}
	for i := range results {
		results[i].Title = strings.TrimSpace(results[i].Title)
		results[i].Description = strings.TrimSpace(results[i].Description)
	}
	return results, nil
}

func resizeJPEG(data []byte, maxWidth int) (*entity.Screenshot, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("image decode failed: %w", err)
	}

	if img.Bounds().Dx() > maxWidth {
		img = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	}

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: 75}); err != nil {
		return nil, fmt.Errorf("jpeg encode failed: %w", err)
	}

	return &entity.Screenshot{
		Data:   buf.Bytes(),
		Format: "jpeg",
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
	}, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
