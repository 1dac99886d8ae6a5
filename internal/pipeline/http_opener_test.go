package pipeline

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/ytb/internal/domain"
)

func redirectServer(t *testing.T, hops int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/hop/", func(w http.ResponseWriter, r *http.Request) {
		var n int
		_, _ = fmt.Sscanf(r.URL.Path, "/hop/%d", &n)
		if n < hops {
			http.Redirect(w, r, fmt.Sprintf("/hop/%d", n+1), http.StatusFound)
			return
		}
		w.Header().Set("Content-Length", "5")
		_, _ = w.Write([]byte("hello"))
	})
	mux.HandleFunc("/gone", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusForbidden)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPOpener_FollowsRedirectsWithinBudget(t *testing.T) {
	srv := redirectServer(t, 5)
	opener := NewHTTPOpener(5)

	body, length, err := opener.Open(context.Background(), domain.FormatDescriptor{URL: srv.URL + "/hop/0"})
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
	assert.Equal(t, int64(5), length)
}

func TestHTTPOpener_TooManyRedirects(t *testing.T) {
	srv := redirectServer(t, 6)
	opener := NewHTTPOpener(5)

	_, _, err := opener.Open(context.Background(), domain.FormatDescriptor{URL: srv.URL + "/hop/0"})
	assert.Error(t, err)
}

func TestHTTPOpener_NonSuccessStatus(t *testing.T) {
	srv := redirectServer(t, 0)
	opener := NewHTTPOpener(5)

	_, _, err := opener.Open(context.Background(), domain.FormatDescriptor{URL: srv.URL + "/gone"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestHTTPOpener_MissingURL(t *testing.T) {
	_, _, err := NewHTTPOpener(5).Open(context.Background(), domain.FormatDescriptor{ID: "140"})
	assert.Error(t, err)
}
