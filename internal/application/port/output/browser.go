package output

import (
	"context"

	"browsegpt/internal/domain/entity"
)

// BrowserPort drives an existing remote browser session over its
// remote-control channel. Implementations attach to the session per call and
// never create or close it.
type BrowserPort interface {
	Search(ctx context.Context, sessionID, query string) ([]entity.SearchResult, error)
	PageContent(ctx context.Context, sessionID, url string) (*entity.PageContent, error)
	Screenshot(ctx context.Context, sessionID string) (*entity.Screenshot, error)
}
