package browser

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/Surfer/internal/domain"
)

// --- Build ---

func TestBuild_Development(t *testing.T) {
	settings := domain.BrowserSettings{
		Headless:          false,
		DisableSecurity:   false,
		WindowWidth:       800,
		WindowHeight:      600,
		HighlightElements: true,
		ChromePath:        "/opt/chrome/chrome",
	}

	p := Build(settings, Environment{})

	assert.False(t, p.Headless)
	assert.False(t, p.DisableSecurity)
	assert.Equal(t, 800, p.WindowWidth)
	assert.Equal(t, 600, p.WindowHeight)
	assert.True(t, p.Highlight)
	assert.Equal(t, "/opt/chrome/chrome", p.ExecPath)
	assert.Empty(t, p.ExtraArgs)
	assert.Empty(t, p.Args())
}

func TestBuild_Production(t *testing.T) {
	settings := domain.BrowserSettings{
		Headless:          false,
		DisableSecurity:   false,
		HighlightElements: false,
		ChromePath:        "/opt/chrome/chrome",
	}

	p := Build(settings, Environment{Production: true})

	assert.True(t, p.Headless)
	assert.True(t, p.DisableSecurity)
	assert.Empty(t, p.ExecPath, "custom binary ignored in production")
	assert.False(t, p.Highlight)
	assert.Equal(t, domain.DefaultWindowWidth, p.WindowWidth)
	assert.Equal(t, domain.DefaultWindowHeight, p.WindowHeight)
	assert.Equal(t, []string{
		"no-sandbox",
		"disable-dev-shm-usage",
		"disable-gpu",
		"disable-setuid-sandbox",
		"disable-software-rasterizer",
	}, p.ExtraArgs)
	assert.Contains(t, p.Args(), "disable-web-security")
}

func TestBuild_DoesNotShareArgs(t *testing.T) {
	p1 := Build(domain.DefaultBrowserSettings(), Environment{Production: true})
	p1.ExtraArgs[0] = "mutated"
	p2 := Build(domain.DefaultBrowserSettings(), Environment{Production: true})
	assert.Equal(t, "no-sandbox", p2.ExtraArgs[0])
}

// --- Factory ---

type fakeEngine struct {
	err     error
	profile Profile
}

func (e *fakeEngine) Name() string { return "fake" }

func (e *fakeEngine) Launch(_ context.Context, p Profile) (Session, error) {
	e.profile = p
	if e.err != nil {
		return nil, e.err
	}
	return nil, nil
}

func TestFactory_Open(t *testing.T) {
	engine := &fakeEngine{}
	f := NewFactory(engine, nil)
	assert.Equal(t, "fake", f.Engine())

	p := Build(domain.DefaultBrowserSettings(), Environment{})
	_, err := f.Open(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, p, engine.profile)
}

func TestFactory_OpenError(t *testing.T) {
	cause := errors.New("no chrome")
	f := NewFactory(&fakeEngine{err: cause}, nil)

	_, err := f.Open(context.Background(), Profile{})
	assert.ErrorIs(t, err, ErrLaunch)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "fake")
}

// --- Scripts ---

func TestHighlightExpr_QuotesSelector(t *testing.T) {
	expr := highlightExpr(`a[href="x"]`)
	assert.True(t, strings.HasSuffix(expr, `("a[href=\"x\"]")`))
	assert.Equal(t, "window.scrollBy(0, -300)", scrollExpr(-300))
}

// --- ExtractReadable ---

const articleHTML = `<!DOCTYPE html>
<html><head><title>Example Domain</title></head>
<body>
<nav><a href="/">Home</a></nav>
<article>
<h1>Example Domain</h1>
<p>This domain is for use in illustrative examples in documents. You may use this
domain in literature without prior coordination or asking for permission.</p>
<p>More information about example domains and their reserved status is available
from the registry. <script>alert('x')</script></p>
</article>
</body></html>`

func TestExtractReadable(t *testing.T) {
	r, err := ExtractReadable(articleHTML, "https://example.com/")
	require.NoError(t, err)

	assert.Equal(t, "Example Domain", r.Title)
	assert.Contains(t, r.Text, "illustrative examples")
	assert.NotContains(t, r.Text, "<script")
	assert.NotContains(t, r.Text, "alert(")
	assert.True(t, strings.HasPrefix(r.String(), "TITLE: Example Domain\n"))
}

func TestExtractReadable_BadURL(t *testing.T) {
	_, err := ExtractReadable("<html></html>", "://bad")
	assert.Error(t, err)
}
