package browser

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/go-shiori/go-readability"
	"github.com/microcosm-cc/bluemonday"
)

// MaxExtractLength — ограничение длины извлечённого текста.
const MaxExtractLength = 50000

// Readable — основной текст страницы.
type Readable struct {
	Title   string
	Excerpt string
	Text    string
}

// String форматирует результат для LLM и для extracted_content.
func (r Readable) String() string {
	var b strings.Builder
	if r.Title != "" {
		fmt.Fprintf(&b, "TITLE: %s\n", r.Title)
	}
	if r.Excerpt != "" {
		fmt.Fprintf(&b, "EXCERPT: %s\n", r.Excerpt)
	}
	b.WriteString("\n")
	b.WriteString(r.Text)
	return b.String()
}

// ExtractReadable извлекает основной текст из HTML страницы.
// Текст очищается строгой политикой bluemonday и обрезается до MaxExtractLength.
func ExtractReadable(html, pageURL string) (Readable, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return Readable{}, fmt.Errorf("parse url: %w", err)
	}

	article, err := readability.FromReader(strings.NewReader(html), parsed)
	if err != nil {
		return Readable{}, fmt.Errorf("parse article: %w", err)
	}

	p := bluemonday.StrictPolicy()
	text := strings.TrimSpace(p.Sanitize(article.TextContent))
	if len(text) > MaxExtractLength {
		text = text[:MaxExtractLength] + "\n... (content truncated)"
	}

	return Readable{
		Title:   strings.TrimSpace(article.Title),
		Excerpt: strings.TrimSpace(p.Sanitize(article.Excerpt)),
		Text:    text,
	}, nil
}
