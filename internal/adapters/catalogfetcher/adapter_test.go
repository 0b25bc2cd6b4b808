package catalogfetcher

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIndexServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("city") != "Beer Sheva" {
			http.NotFound(w, r)
			return
		}
		assert.NotEmpty(t, r.UserAgent())
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<html><body><ul class="hoods">
			<li class="hood"> Ramot </li>
			<li class="hood">Neve
				Zeev</li>
			<li class="hood">Ramot</li>
			<li class="hood">  </li>
			<li class="other">Not a neighborhood</li>
		</ul></body></html>`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchNeighborhoods(t *testing.T) {
	srv := newIndexServer(t)
	a, err := NewCatalogFetcherAdapter(Config{
		SourceURL:    srv.URL + "/index?city=" + CityPlaceholder,
		ItemSelector: "li.hood",
	}, zerolog.Nop())
	require.NoError(t, err)

	names, err := a.FetchNeighborhoods(context.Background(), "Beer Sheva")
	require.NoError(t, err)
	assert.Equal(t, []string{"Ramot", "Neve Zeev"}, names)

	// повторный вызов того же URL разрешен
	again, err := a.FetchNeighborhoods(context.Background(), "Beer Sheva")
	require.NoError(t, err)
	assert.Equal(t, names, again)
}

func TestFetchNeighborhoods_HTTPError(t *testing.T) {
	srv := newIndexServer(t)
	a, err := NewCatalogFetcherAdapter(Config{
		SourceURL:    srv.URL + "/index?city=" + CityPlaceholder,
		ItemSelector: "li.hood",
	}, zerolog.Nop())
	require.NoError(t, err)

	_, err = a.FetchNeighborhoods(context.Background(), "Atlantis")
	assert.Error(t, err)
}

func TestFetchNeighborhoods_CancelledContext(t *testing.T) {
	srv := newIndexServer(t)
	a, err := NewCatalogFetcherAdapter(Config{
		SourceURL:    srv.URL + "/index?city=" + CityPlaceholder,
		ItemSelector: "li.hood",
	}, zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = a.FetchNeighborhoods(ctx, "Beer Sheva")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewCatalogFetcherAdapter_InvalidConfig(t *testing.T) {
	_, err := NewCatalogFetcherAdapter(Config{SourceURL: "https://example.org/{city}"}, zerolog.Nop())
	assert.Error(t, err)

	_, err = NewCatalogFetcherAdapter(Config{SourceURL: "not a url", ItemSelector: "li"}, zerolog.Nop())
	assert.Error(t, err)
}
