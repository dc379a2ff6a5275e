package output

import (
	"context"

	"browsegpt/internal/domain/entity"
)

// SessionProviderPort provisions remote browser sessions. A created session
// has exactly one open page.
type SessionProviderPort interface {
	CreateSession(ctx context.Context) (*entity.BrowserSession, error)
	GetDebugInfo(ctx context.Context, sessionID string) (*entity.SessionDebugInfo, error)
}
