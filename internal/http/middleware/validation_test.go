package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRegisterValidators_Phone(t *testing.T) {
	gin.SetMode(gin.TestMode)
	if err := RegisterValidators(); err != nil {
		t.Fatalf("RegisterValidators: %v", err)
	}

	type req struct {
		Phone string `json:"phone" binding:"required,phone"`
	}
	r := gin.New()
	r.POST("/p", func(c *gin.Context) {
		var in req
		if err := c.ShouldBindJSON(&in); err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		c.Status(http.StatusOK)
	})

	for body, want := range map[string]int{
		`{"phone":"+998 90 123-45-67"}`: http.StatusOK,
		`{"phone":"+998901234567"}`:     http.StatusOK,
		`{"phone":"998901234567"}`:      http.StatusBadRequest,
		`{"phone":"+99"}`:               http.StatusBadRequest,
		`{}`:                            http.StatusBadRequest,
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/p", strings.NewReader(body)))
		if w.Code != want {
			t.Errorf("%s: status %d, want %d", body, w.Code, want)
		}
	}
}
