package image_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripsync/image"
)

func newTestClient(baseURL string) *image.PexelsClient {
	c := image.NewPexelsClient("test-key")
	c.BaseURL = baseURL
	c.HTTPClient = http.DefaultClient
	return c
}

func TestFetchImageSuccess(t *testing.T) {
	var searchedQuery string
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/photo.jpg", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte{0xFF, 0xD8, 0xFF, 0xE0})
	})
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("Authorization"))
		searchedQuery = r.URL.Query().Get("query")
		fmt.Fprintf(w, `{"photos":[{"src":{"medium":"%s/photo.jpg"}}]}`, srv.URL)
	})

	client := newTestClient(srv.URL)
	data, err := client.FetchImage(context.Background(), "Japan", 0)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0xD8, 0xFF, 0xE0}, data)
	assert.Equal(t, "Japan travel", searchedQuery)
}

func TestFetchImageMissingKey(t *testing.T) {
	client := image.NewPexelsClient("")
	_, err := client.FetchImage(context.Background(), "Japan", 0)
	assert.ErrorIs(t, err, image.ErrMissingAPIKey)
}

func TestFetchImageErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		expected error
	}{
		{"unauthorized", http.StatusUnauthorized, image.ErrUnauthorized},
		{"rate limited", http.StatusTooManyRequests, image.ErrRateLimited},
		{"not found", http.StatusNotFound, image.ErrNoResults},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}))
			defer srv.Close()

			client := newTestClient(srv.URL)
			_, err := client.FetchImage(context.Background(), "Japan", 0)
			assert.ErrorIs(t, err, tc.expected)
		})
	}
}

func TestFetchImageEmptyResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"photos":[]}`)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	_, err := client.FetchImage(context.Background(), "Atlantis", 3)
	assert.ErrorIs(t, err, image.ErrNoResults)
}

func TestFetchImageVariationIsStable(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	var queries []string
	mux.HandleFunc("/a.jpg", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte{1}) })
	mux.HandleFunc("/b.jpg", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte{2}) })
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		queries = append(queries, r.URL.Query().Get("query"))
		fmt.Fprintf(w, `{"photos":[{"src":{"medium":"%s/a.jpg"}},{"src":{"medium":"%s/b.jpg"}}]}`, srv.URL, srv.URL)
	})

	client := newTestClient(srv.URL)
	first, err := client.FetchImage(context.Background(), "Japan", 7)
	require.NoError(t, err)
	second, err := client.FetchImage(context.Background(), "Japan", 7)
	require.NoError(t, err)

	assert.Equal(t, first, second, "same variation index must pick the same photo")
	assert.Equal(t, queries[0], queries[1], "same variation index must build the same query")
}
