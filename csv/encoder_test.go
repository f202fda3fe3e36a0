package csv_test

import (
	stdcsv "encoding/csv"
	"strings"
	"testing"

	"github.com/fwojciec/adsift"
	"github.com/fwojciec/adsift/csv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(headline, image, dest string) adsift.ResolvedAdRecord {
	return adsift.ResolvedAdRecord{
		AdRecord:    adsift.AdRecord{Headline: headline, Link: dest, Image: image},
		Destination: dest,
	}
}

func TestEncoder_Encode(t *testing.T) {
	t.Parallel()

	t.Run("no records yields only the header", func(t *testing.T) {
		t.Parallel()

		out, err := csv.NewEncoder().Encode(nil)

		require.NoError(t, err)
		assert.Equal(t, "\"Headline\",\"Image\",\"Destination\"\n", string(out))
	})

	t.Run("quotes every field", func(t *testing.T) {
		t.Parallel()

		out, err := csv.NewEncoder().Encode([]adsift.ResolvedAdRecord{
			record("Plain", "https://x.test/i.png", "https://x.test/a"),
		})

		require.NoError(t, err)
		lines := strings.Split(strings.TrimSuffix(string(out), "\n"), "\n")
		require.Len(t, lines, 2)
		assert.Equal(t, `"Plain","https://x.test/i.png","https://x.test/a"`, lines[1])
	})

	t.Run("collapses line breaks", func(t *testing.T) {
		t.Parallel()

		out, err := csv.NewEncoder().Encode([]adsift.ResolvedAdRecord{
			record("one\r\ntwo\nthree\rfour", "", ""),
		})

		require.NoError(t, err)
		assert.Contains(t, string(out), `"one two three four","",""`)
	})

	t.Run("parses back with quotes and commas intact", func(t *testing.T) {
		t.Parallel()

		headlines := []string{
			`Say "hello", world`,
			`""`,
			`a,b,c`,
			`trailing "`,
		}
		var records []adsift.ResolvedAdRecord
		for _, h := range headlines {
			records = append(records, record(h, "https://x.test/i.png", "https://x.test/d"))
		}

		out, err := csv.NewEncoder().Encode(records)
		require.NoError(t, err)

		rows, err := stdcsv.NewReader(strings.NewReader(string(out))).ReadAll()
		require.NoError(t, err)
		require.Len(t, rows, len(headlines)+1)
		assert.Equal(t, csv.Header, rows[0])
		for i, h := range headlines {
			assert.Equal(t, []string{h, "https://x.test/i.png", "https://x.test/d"}, rows[i+1])
		}
	})
}

func TestEncoder_Ext(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "csv", csv.NewEncoder().Ext())
}

func TestEscape(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `""`, csv.Escape(""))
	assert.Equal(t, `"a ""b"""`, csv.Escape(`a "b"`))
	assert.Equal(t, `"x y"`, csv.Escape("x\r\ny"))
}
