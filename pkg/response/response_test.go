package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/attendance-ledger/pkg/envelope"
)

func newContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)
	return c, w
}

func TestSuccess_EchoesEnvelopeID(t *testing.T) {
	c, w := newContext()
	Bind(c, envelope.Request{ID: "dev-1", Payload: json.RawMessage(`{}`)}, envelope.NoopSigner{})

	Success(c, http.StatusCreated, gin.H{"message": "ok"})

	require.Equal(t, http.StatusCreated, w.Code)
	var env map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, "dev-1", env["id"])
	assert.Equal(t, envelope.PlaceholderSig, env["sig"])
	assert.Equal(t, map[string]any{"message": "ok"}, env["res"])
	assert.NotEmpty(t, env["ts"])
}

func TestError_FallsBackToRequestID(t *testing.T) {
	c, w := newContext()
	c.Set("request_id", "req-42")

	Abort(c, http.StatusNotFound, "UserNotFound", "user u9 not found", nil)

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.True(t, c.IsAborted())
	var env struct {
		ID  string    `json:"id"`
		Res ErrorBody `json:"res"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, "req-42", env.ID)
	assert.Equal(t, "UserNotFound", env.Res.Error)
	assert.Equal(t, "user u9 not found", env.Res.Message)
	assert.NotContains(t, w.Body.String(), "details")
}
