package controller

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

// 蜜罐字段被填必须 400 拒绝，不得走任何业务路径
func TestHoneypotRejected(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c := &AccessController{}

	router := gin.New()
	router.POST("/api/verify", c.VerifyAccess)
	router.POST("/api/progress", c.HandleProgress)
	router.POST("/api/kc", c.RecordKnowledgeCheck)
	router.POST("/api/stats", c.GetStats)

	body := `{"email":"rider@example.com","course_id":"gravel-race-prep","website":"http://spam.example.com"}`

	for _, path := range []string{"/api/verify", "/api/progress", "/api/kc", "/api/stats"} {
		t.Run(path, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "Bot detected")
		})
	}
}
