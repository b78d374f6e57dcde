package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bindTarget struct {
	Email   string `json:"email" binding:"required,email"`
	Minutes int    `json:"minutes" binding:"required,min=30,max=240"`
}

func bind(t *testing.T, body string) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()

	var ok bool
	router.POST("/x", func(c *gin.Context) {
		var dst bindTarget
		ok = BindJSON(c, &dst)
		if ok {
			c.Status(http.StatusNoContent)
		}
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/x", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w, ok
}

func TestBindJSON_Valid(t *testing.T) {
	w, ok := bind(t, `{"email":"a@example.com","minutes":60}`)

	assert.True(t, ok)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestBindJSON_FieldErrors(t *testing.T) {
	w, ok := bind(t, `{"email":"nope","minutes":300}`)

	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp ValidationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "validation_error", resp.Code)
	require.Len(t, resp.Details, 2)
	assert.Equal(t, "Email", resp.Details[0].Field)
	assert.Equal(t, "email", resp.Details[0].Tag)
	assert.Equal(t, "Minutes must be at most 240", resp.Details[1].Message)
}

func TestBindJSON_Malformed(t *testing.T) {
	w, ok := bind(t, `{"email":`)

	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp ValidationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Details, 1)
	assert.Equal(t, "body", resp.Details[0].Field)
}
