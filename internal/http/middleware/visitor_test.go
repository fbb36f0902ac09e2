package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
)

type recordingToucher struct {
	mu   sync.Mutex
	sids []string
	err  error
}

func (r *recordingToucher) TouchVisitor(_ context.Context, sid string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sids = append(r.sids, sid)
	return r.err
}

func TestVisitorSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := &recordingToucher{}
	r := gin.New()
	r.Use(VisitorSession(rec, false))
	r.GET("/news", func(c *gin.Context) { c.Status(http.StatusOK) })

	// First visit: cookie issued.
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/news", nil))
	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != VisitorCookie || !cookies[0].HttpOnly {
		t.Fatalf("cookies = %+v", cookies)
	}
	sid := cookies[0].Value

	// Returning visit: same id, no new cookie.
	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/news", nil)
	req.AddCookie(&http.Cookie{Name: VisitorCookie, Value: sid})
	r.ServeHTTP(w, req)
	if len(w.Result().Cookies()) != 0 {
		t.Fatalf("returning visitor must keep its cookie")
	}

	// Forged value: replaced.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/news", nil)
	req.AddCookie(&http.Cookie{Name: VisitorCookie, Value: "not-a-uuid"})
	r.ServeHTTP(w, req)
	if c := w.Result().Cookies(); len(c) != 1 || c[0].Value == sid {
		t.Fatalf("forged cookie not replaced: %+v", c)
	}

	if len(rec.sids) != 3 || rec.sids[0] != sid || rec.sids[1] != sid {
		t.Fatalf("touched = %v", rec.sids)
	}
}

func TestVisitorSession_StoreFailureDoesNotFailRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(VisitorSession(&recordingToucher{err: errors.New("db down")}, true))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if c := w.Result().Cookies(); len(c) != 1 || !c[0].Secure {
		t.Fatalf("secure cookie expected: %+v", c)
	}
}
