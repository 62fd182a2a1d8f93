package parser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"DisclosureScanner/internal/domain"
)

const listingHTML = `
<html><body>
<table class="tdnet_news_table">
  <tr><th>時刻</th><th>コード</th><th>会社名</th><th>表題</th></tr>
  <tr>
    <td>2025/10/17</td><td> 72030 </td><td>トヨタ自動車</td>
    <td><a href="140120251017512345.pdf">株式会社ＡＢＣに対する公開買付けの開始に関するお知らせ</a></td>
  </tr>
  <tr>
    <td>2025/10/17</td><td>6758</td><td>ソニーグループ</td>
  </tr>
  <tr>
    <td>2025/10/17</td><td>9984</td><td>ソフトバンクグループ</td><td>訂正（リンクなし）</td>
  </tr>
  <tr>
    <td>2025/10/16</td><td>4063</td><td>信越化学工業</td>
    <td><a href="/inbs/140120251016500001.pdf">自己株式取得に係る事項の決定に関するお知らせ</a></td><td>東</td>
  </tr>
</table>
</body></html>`

func newTestScanner(t *testing.T, serverURL string) *TDnetScanner {
	t.Helper()

	sc, err := NewTDnetScanner(nil, ScannerOptions{
		ListingURL:    serverURL + "/inbs/I_main_00.html",
		BaseURL:       "https://www.release.tdnet.info/inbs/",
		TableSelector: "table.tdnet_news_table",
	}, nil)
	require.NoError(t, err)
	return sc
}

func TestListRecentEntries(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(listingHTML))
	}))
	defer server.Close()

	entries, err := newTestScanner(t, server.URL).ListRecentEntries(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []domain.Entry{
		{
			Date:        "2025/10/17",
			Code:        "72030",
			Title:       "株式会社ＡＢＣに対する公開買付けの開始に関するお知らせ",
			DocumentURL: "https://www.release.tdnet.info/inbs/140120251017512345.pdf",
		},
		{
			Date:        "2025/10/16",
			Code:        "4063",
			Title:       "自己株式取得に係る事項の決定に関するお知らせ",
			DocumentURL: "https://www.release.tdnet.info/inbs/140120251016500001.pdf",
		},
	}, entries)
}

func TestListRecentEntriesHeaderOnly(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<table class="tdnet_news_table"><tr><th>時刻</th></tr></table>`))
	}))
	defer server.Close()

	entries, err := newTestScanner(t, server.URL).ListRecentEntries(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestListRecentEntriesSourceUnavailable(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "I_main_00") {
			_, _ = w.Write([]byte(`<html><body><p>メンテナンス中</p></body></html>`))
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	_, err := newTestScanner(t, server.URL).ListRecentEntries(context.Background())
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)

	sc, err := NewTDnetScanner(server.Client(), ScannerOptions{
		ListingURL: server.URL + "/missing.html",
		BaseURL:    server.URL,
	}, nil)
	require.NoError(t, err)
	_, err = sc.ListRecentEntries(context.Background())
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
}

func TestParseRowSkipsMalformedRows(t *testing.T) {
	t.Parallel()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(listingHTML))
	require.NoError(t, err)

	sc := newTestScanner(t, "http://unused")

	var kept int
	doc.Find("tr").Each(func(i int, tr *goquery.Selection) {
		if _, ok := sc.parseRow(tr); ok {
			kept++
		}
	})
	assert.Equal(t, 2, kept)
}
