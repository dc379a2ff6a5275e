package tool

import (
	"context"

	"browsegpt/internal/domain/entity"
	"browsegpt/internal/infrastructure/logger"
)

var testLogger = logger.NewNop()

type fakeSessions struct {
	session    *entity.BrowserSession
	info       *entity.SessionDebugInfo
	createErr  error
	debugErr   error
	debugCalls []string
}

func (f *fakeSessions) CreateSession(ctx context.Context) (*entity.BrowserSession, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.session, nil
}

func (f *fakeSessions) GetDebugInfo(ctx context.Context, sessionID string) (*entity.SessionDebugInfo, error) {
	f.debugCalls = append(f.debugCalls, sessionID)
	if f.debugErr != nil {
		return nil, f.debugErr
	}
	return f.info, nil
}

type fakeBrowser struct {
	results   []entity.SearchResult
	searchErr error
	page      *entity.PageContent
	pageErr   error

	queries []string
	urls    []string
}

func (f *fakeBrowser) Search(ctx context.Context, sessionID, query string) ([]entity.SearchResult, error) {
	f.queries = append(f.queries, query)
	return f.results, f.searchErr
}

func (f *fakeBrowser) PageContent(ctx context.Context, sessionID, url string) (*entity.PageContent, error) {
	f.urls = append(f.urls, url)
	if f.pageErr != nil {
		return nil, f.pageErr
	}
	return f.page, nil
}

func (f *fakeBrowser) Screenshot(ctx context.Context, sessionID string) (*entity.Screenshot, error) {
	return nil, entity.ErrNoPage
}

type fakeExtractor struct {
	page entity.ExtractedPage
	html string
}

func (f *fakeExtractor) Extract(html, pageURL string) entity.ExtractedPage {
	f.html = html
	return f.page
}

type fakeSummarizer struct {
	reply   string
	err     error
	prompts []string
}

func (f *fakeSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	f.prompts = append(f.prompts, text)
	return f.reply, f.err
}
