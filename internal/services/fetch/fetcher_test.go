package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/loci/internal/common"
)

func newTestFetcher(t *testing.T) *Fetcher {
	t.Helper()

	config := common.NewDefaultConfig()
	config.Fetcher.RequestDelay = 0
	return NewFetcher(config, common.GetLogger()).(*Fetcher)
}

func TestFetchStripsBoilerplate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><title>Test</title></head><body>
			<nav>Navigation links</nav>
			<script>var tracking = true;</script>
			<h1>Park History</h1>
			<p>The park opened in 1871.</p>
			<footer>Copyright</footer>
		</body></html>`)
	}))
	defer server.Close()

	f := newTestFetcher(t)
	text, err := f.Fetch(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Contains(t, text, "Park History")
	assert.Contains(t, text, "The park opened in 1871.")
	assert.NotContains(t, text, "Navigation links")
	assert.NotContains(t, text, "tracking")
	assert.NotContains(t, text, "Copyright")
}

func TestFetchTruncatesToBudget(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sb strings.Builder
		sb.WriteString("<html><body><p>")
		for i := 0; i < 2000; i++ {
			fmt.Fprintf(&sb, "word%d ", i)
		}
		sb.WriteString("</p></body></html>")
		fmt.Fprint(w, sb.String())
	}))
	defer server.Close()

	f := newTestFetcher(t)
	text, err := f.Fetch(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Len(t, strings.Fields(text), f.config.Fetcher.TokenBudget)
}

func TestFetchNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer server.Close()

	f := newTestFetcher(t)
	_, err := f.Fetch(context.Background(), server.URL)
	assert.Error(t, err)
}

func TestFetchEmptyURL(t *testing.T) {
	f := newTestFetcher(t)
	_, err := f.Fetch(context.Background(), "")
	assert.Error(t, err)
}

func TestTruncateTokens(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		n        int
		expected string
	}{
		{"under budget", "one two three", 10, "one two three"},
		{"exact budget", "one two three", 3, "one two three"},
		{"over budget", "one two three four", 2, "one two"},
		{"zero budget", "one two", 0, ""},
		{"collapses whitespace when cutting", "one   two\nthree", 2, "one two"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, TruncateTokens(tt.text, tt.n))
		})
	}
}
