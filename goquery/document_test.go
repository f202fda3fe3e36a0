package goquery_test

import (
	"testing"

	"github.com/fwojciec/adsift"
	"github.com/fwojciec/adsift/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Ensure Document implements adsift.Document at compile time.
var _ adsift.Document = (*goquery.Document)(nil)

func TestNewDocument(t *testing.T) {
	t.Parallel()

	t.Run("rejects invalid base URL", func(t *testing.T) {
		t.Parallel()

		_, err := goquery.NewDocument("<html></html>", "://bad")

		require.Error(t, err)
		assert.Equal(t, adsift.EINVALID, adsift.ErrorCode(err))
	})

	t.Run("reports its URL", func(t *testing.T) {
		t.Parallel()

		doc, err := goquery.NewDocument("<html></html>", "https://news.test/feed")

		require.NoError(t, err)
		assert.Equal(t, "https://news.test/feed", doc.URL())
	})
}

func TestDocument_Resolve(t *testing.T) {
	t.Parallel()

	t.Run("resolves relative references against the page", func(t *testing.T) {
		t.Parallel()

		doc, err := goquery.NewDocument("<html><body></body></html>", "https://news.test/feed/today")
		require.NoError(t, err)

		assert.Equal(t, "https://news.test/click?id=1", doc.Resolve("/click?id=1"))
		assert.Equal(t, "https://news.test/feed/img.png", doc.Resolve("img.png"))
		assert.Equal(t, "https://cdn.test/a.png", doc.Resolve("https://cdn.test/a.png"))
		assert.Equal(t, "", doc.Resolve("   "))
	})

	t.Run("honours base element", func(t *testing.T) {
		t.Parallel()

		html := `<html><head><base href="https://cdn.test/assets/"></head><body></body></html>`
		doc, err := goquery.NewDocument(html, "https://news.test/feed")
		require.NoError(t, err)

		assert.Equal(t, "https://cdn.test/assets/a.png", doc.Resolve("a.png"))
	})
}

func TestDocument_AttachFrame(t *testing.T) {
	t.Parallel()

	doc, err := goquery.NewDocument("<html></html>", "https://news.test/feed")
	require.NoError(t, err)

	same, err := goquery.NewDocument("<html></html>", "https://news.test/frame")
	require.NoError(t, err)
	cross, err := goquery.NewDocument("<html></html>", "https://ads.other.test/frame")
	require.NoError(t, err)

	assert.True(t, doc.AttachFrame(same))
	assert.False(t, doc.AttachFrame(cross))
	require.Len(t, doc.Frames(), 1)
	assert.Equal(t, "https://news.test/frame", doc.Frames()[0].URL())
}

func TestDocument_HTML_IncludesHiding(t *testing.T) {
	t.Parallel()

	doc, err := goquery.NewDocument(`<html><body><article id="a">x</article></body></html>`, "https://news.test/")
	require.NoError(t, err)

	nodes := doc.Root().Find("article")
	require.Len(t, nodes, 1)
	require.NoError(t, nodes[0].Hide())

	out, err := doc.HTML()
	require.NoError(t, err)
	assert.Contains(t, out, `style="display: none"`)
}

func TestDocument_AttachInlineFrames(t *testing.T) {
	t.Parallel()

	doc, err := goquery.NewDocument(`<html><body>
		<iframe srcdoc="<div class='ad-card-container'><a href='/inner'>x</a></div>"></iframe>
		<iframe src="https://ads.other.test/frame"></iframe>
	</body></html>`, "https://news.test/feed")
	require.NoError(t, err)

	assert.Equal(t, 1, doc.AttachInlineFrames())

	frames := doc.Frames()
	require.Len(t, frames, 1)
	assert.Equal(t, "https://news.test/feed", frames[0].URL())
	assert.Len(t, frames[0].Root().Find(".ad-card-container"), 1)
	assert.Equal(t, "https://news.test/inner", frames[0].Resolve("/inner"))
}
