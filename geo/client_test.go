package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, postal, search http.HandlerFunc) *Client {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/", postal)
	mux.HandleFunc("/search", search)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/ws", srv.URL+"/search", "menuly-test", time.Second)
}

func TestClientLocate(t *testing.T) {
	var gotQuery string
	c := newTestServer(t,
		func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/ws/01310100/json/", r.URL.Path)
			_, _ = w.Write([]byte(`{"cep":"01310-100","logradouro":"Avenida Paulista","bairro":"Bela Vista","localidade":"São Paulo","uf":"SP"}`))
		},
		func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.Query().Get("q")
			assert.Equal(t, "menuly-test", r.Header.Get("User-Agent"))
			_, _ = w.Write([]byte(`[{"lat":"-23.5614","lon":"-46.6559"}]`))
		},
	)

	coords, err := c.Locate(context.Background(), "01310-100")
	require.NoError(t, err)
	assert.Equal(t, "Avenida Paulista, São Paulo, SP, Brasil", gotQuery)
	assert.InDelta(t, -23.5614, coords.Lat, 1e-9)
	assert.InDelta(t, -46.6559, coords.Lon, 1e-9)
}

func TestClientLocateUnknownPostalCode(t *testing.T) {
	c := newTestServer(t,
		func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"erro": true}`))
		},
		func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("geocoder must not be called for unknown postal codes")
		},
	)

	_, err := c.Locate(context.Background(), "99999999")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClientLocateFallsBackToStructuredQuery(t *testing.T) {
	c := newTestServer(t,
		func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"cep":"13560-970","logradouro":"","localidade":"São Carlos","uf":"SP"}`))
		},
		func(w http.ResponseWriter, r *http.Request) {
			assert.Empty(t, r.URL.Query().Get("q"))
			assert.Equal(t, "13560-970", r.URL.Query().Get("postalcode"))
			_, _ = w.Write([]byte(`[{"lat":"-22.0087","lon":"-47.8909"}]`))
		},
	)

	coords, err := c.Locate(context.Background(), "13560970")
	require.NoError(t, err)
	assert.InDelta(t, -22.0087, coords.Lat, 1e-9)
}

func TestClientLocateServerError(t *testing.T) {
	c := newTestServer(t,
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		},
		func(w http.ResponseWriter, r *http.Request) {},
	)

	_, err := c.Locate(context.Background(), "01310100")
	assert.Error(t, err)
}
