package output

import "browsegpt/internal/domain/entity"

type ContentExtractorPort interface {
	Extract(html, pageURL string) entity.ExtractedPage
}
