package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type recordedRequest struct {
	method, route string
	status        int
}

type fakeRecorder struct {
	mu   sync.Mutex
	seen []recordedRequest
}

func (f *fakeRecorder) HTTPRequest(method, route string, status int, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, recordedRequest{method, route, status})
}

func newRouter(rec HTTPRecorder) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Logging(), Metrics(rec))
	r.GET("/models/:name", func(c *gin.Context) {
		c.String(http.StatusOK, RequestIDFrom(c))
	})
	return r
}

func TestRequestID_Generated(t *testing.T) {
	r := newRouter(&fakeRecorder{})

	req, _ := http.NewRequest("GET", "/models/fraud", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	id := w.Header().Get(headerRequestID)
	assert.NotEmpty(t, id)
	assert.Equal(t, id, w.Body.String())
}

func TestRequestID_Propagated(t *testing.T) {
	r := newRouter(&fakeRecorder{})

	req, _ := http.NewRequest("GET", "/models/fraud", nil)
	req.Header.Set(headerRequestID, "req-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-1", w.Header().Get(headerRequestID))
}

func TestRequestID_MalformedReplaced(t *testing.T) {
	r := newRouter(&fakeRecorder{})

	req, _ := http.NewRequest("GET", "/models/fraud", nil)
	req.Header.Set(headerRequestID, "bad id\twith spaces")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	id := w.Header().Get(headerRequestID)
	assert.NotEqual(t, "bad id\twith spaces", id)
	assert.Len(t, id, 36)
	assert.Equal(t, id, w.Body.String())
}

func TestMetrics_UsesRouteTemplate(t *testing.T) {
	rec := &fakeRecorder{}
	r := newRouter(rec)

	for _, path := range []string{"/models/fraud", "/models/churn", "/nope"} {
		req, _ := http.NewRequest("GET", path, nil)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	assert.Equal(t, []recordedRequest{
		{"GET", "/models/:name", http.StatusOK},
		{"GET", "/models/:name", http.StatusOK},
		{"GET", "unmatched", http.StatusNotFound},
	}, rec.seen)
}
