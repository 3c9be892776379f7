package vision

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogoRisk(t *testing.T) {
	t.Run("maps worst likelihood to risk", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/images:annotate", r.URL.Path)
			assert.Equal(t, "test-key", r.URL.Query().Get("key"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"responses":[{"safeSearchAnnotation":{"adult":"UNLIKELY","violence":"LIKELY","racy":"POSSIBLE"}}]}`))
		}))
		defer srv.Close()

		c := NewWithBaseURL("test-key", srv.URL)
		risk, err := c.LogoRisk(context.Background(), "https://cdn.example.com/logo.png")
		require.NoError(t, err)
		assert.InDelta(t, 0.8, risk, 1e-9)
	})

	t.Run("http error surfaces as provider failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		c := NewWithBaseURL("test-key", srv.URL)
		_, err := c.LogoRisk(context.Background(), "https://cdn.example.com/logo.png")
		assert.Error(t, err)
	})
}
