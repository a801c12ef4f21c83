package mockjudge

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

// NewTestServer starts the stub on a loopback port for the lifetime of t and
// returns it with the API base URL (".../api").
func NewTestServer(t testing.TB, opts Options) (*Server, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	s := New(opts)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return s, srv.URL + "/api"
}
