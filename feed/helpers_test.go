package feed_test

import (
	"testing"

	"github.com/fwojciec/adsift"
	"github.com/fwojciec/adsift/goquery"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocument(html, "https://news.test/feed")
	require.NoError(t, err)
	return doc
}

func byID(t *testing.T, doc adsift.Document, id string) adsift.Node {
	t.Helper()
	nodes := doc.Root().Find("#" + id)
	require.Len(t, nodes, 1, "element #%s", id)
	return nodes[0]
}
