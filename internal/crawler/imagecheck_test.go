package crawler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestImageChecker_Check(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ok.jpg", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
	})
	mux.HandleFunc("/page", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
	})
	mux.HandleFunc("/nohead.png", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)

			return
		}

		assert.Equal(t, "bytes=0-0", r.Header.Get("Range"))
		w.Header().Set("Content-Type", "image/png")
		w.WriteHeader(http.StatusPartialContent)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	checker := NewImageChecker(time.Second, nil)
	ctx := context.Background()

	ok := checker.Check(ctx, srv.URL+"/ok.jpg")
	assert.True(t, ok.Loaded)
	assert.Equal(t, http.StatusOK, ok.StatusCode)
	assert.Empty(t, ok.Error)

	page := checker.Check(ctx, srv.URL+"/page")
	assert.False(t, page.Loaded)
	assert.Contains(t, page.Error, "not an image")

	missing := checker.Check(ctx, srv.URL+"/missing.jpg")
	assert.False(t, missing.Loaded)
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)

	fallback := checker.Check(ctx, srv.URL+"/nohead.png")
	assert.True(t, fallback.Loaded)
	assert.Equal(t, http.StatusPartialContent, fallback.StatusCode)
}

func TestImageChecker_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	res := NewImageChecker(time.Second, nil).Check(context.Background(), addr+"/a.jpg")
	assert.False(t, res.Loaded)
	assert.NotEmpty(t, res.Error)
	assert.Zero(t, res.StatusCode)
}
