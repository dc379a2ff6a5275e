package extract

import (
	"net/url"
	"strings"

	"browsegpt/internal/application/port/output"
	"browsegpt/internal/domain/entity"

	"github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

var _ output.ContentExtractorPort = (*Extractor)(nil)

type Config struct {
	// TagsToRemove are dropped with their whole subtree by the fallback walk.
	TagsToRemove []string
	// MinTextLength is the shortest readability text accepted as main content.
	MinTextLength int
	Logger        output.LoggerPort
}

func DefaultConfig() Config {
	return Config{
		TagsToRemove: []string{
			"script", "style", "noscript", "template", "svg", "iframe",
			"nav", "header", "footer", "aside", "form",
		},
		MinTextLength: 1,
	}
}

// Extractor turns rendered markup into a title and readable text.
type Extractor struct {
	cfg    Config
	logger output.LoggerPort
}

func NewExtractor(cfg Config) *Extractor {
	if len(cfg.TagsToRemove) == 0 {
		cfg.TagsToRemove = DefaultConfig().TagsToRemove
	}
	if cfg.MinTextLength <= 0 {
		cfg.MinTextLength = 1
	}
	return &Extractor{cfg: cfg, logger: cfg.Logger}
}

// Extract never fails. When no main content can be found both fields of the
// result are empty.
func (e *Extractor) Extract(rawHTML, pageURL string) entity.ExtractedPage {
	if strings.TrimSpace(rawHTML) == "" {
		return entity.ExtractedPage{}
	}

	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		parsedURL = &url.URL{}
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), parsedURL)
	if err == nil {
		text := normalizeWhitespace(article.TextContent)
		if len([]rune(text)) >= e.cfg.MinTextLength {
			return entity.ExtractedPage{Title: strings.TrimSpace(article.Title), TextContent: text}
		}
	} else {
		e.debug("Readability failed, using text walk", "url", pageURL, "error", err)
	}

	return e.fallback(rawHTML)
}

func (e *Extractor) fallback(rawHTML string) entity.ExtractedPage {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		e.debug("HTML parse error", "error", err)
		return entity.ExtractedPage{}
	}

	text := ""
	if body := findNode(doc, "body"); body != nil {
		var sb strings.Builder
		e.collectText(body, &sb)
		text = normalizeWhitespace(sb.String())
	}
	if text == "" {
		return entity.ExtractedPage{}
	}

	title := ""
	if t := findNode(doc, "title"); t != nil {
		title = normalizeWhitespace(nodeText(t))
	}
	return entity.ExtractedPage{Title: title, TextContent: text}
}

// collectText appends visible text below n, one block element per line.
func (e *Extractor) collectText(n *html.Node, sb *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		sb.WriteString(n.Data)
		return
	case html.CommentNode:
		return
	case html.ElementNode:
		if isOneOf(n.Data, e.cfg.TagsToRemove...) {
			return
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		e.collectText(c, sb)
	}

	if n.Type == html.ElementNode && isBlock(n.Data) {
		sb.WriteString("\n")
	}
}

func (e *Extractor) debug(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Debug(msg, args...)
	}
}

func findNode(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findNode(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	}
	return sb.String()
}

// normalizeWhitespace collapses runs of spaces inside lines and drops blank
// lines.
func normalizeWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

func isBlock(tag string) bool {
	return isOneOf(tag,
		"p", "div", "section", "article", "main", "li", "ul", "ol", "br",
		"h1", "h2", "h3", "h4", "h5", "h6", "tr", "table", "blockquote", "pre",
	)
}

func isOneOf(s string, candidates ...string) bool {
	for _, c := range candidates {
		if s == c {
			return true
		}
	}
	return false
}
