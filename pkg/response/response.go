package response

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/attendance-ledger/pkg/envelope"
)

// Context keys shared with the envelope middleware.
const (
	RequestKey = "envelope_request"
	SignerKey  = "envelope_signer"
)

// ErrorBody is the res value of every failed operation.
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Bind attaches the decoded request envelope and the signer used for the reply.
func Bind(c *gin.Context, req envelope.Request, signer envelope.Signer) {
	c.Set(RequestKey, req)
	c.Set(SignerKey, signer)
}

// Request returns the envelope bound by Bind.
func Request(c *gin.Context) (envelope.Request, bool) {
	v, ok := c.Get(RequestKey)
	if !ok {
		return envelope.Request{}, false
	}
	req, ok := v.(envelope.Request)
	return req, ok
}

// Payload returns the pd of the bound envelope, or nil.
func Payload(c *gin.Context) json.RawMessage {
	req, _ := Request(c)
	return req.Payload
}

func signer(c *gin.Context) envelope.Signer {
	if v, ok := c.Get(SignerKey); ok {
		if s, ok := v.(envelope.Signer); ok {
			return s
		}
	}
	return envelope.NoopSigner{}
}

// responseID echoes the caller's envelope id, falling back to the request id.
func responseID(c *gin.Context) string {
	if req, ok := Request(c); ok && req.ID != "" {
		return req.ID
	}
	return c.GetString("request_id")
}

// Success writes res wrapped in a signed envelope.
func Success(c *gin.Context, status int, res any) {
	if status == 0 {
		status = http.StatusOK
	}
	write(c, status, res)
}

// Error writes an ErrorBody wrapped in a signed envelope.
func Error(c *gin.Context, status int, kind, message string, details any) {
	if status == 0 {
		status = http.StatusBadRequest
	}
	write(c, status, ErrorBody{Error: kind, Message: message, Details: details})
}

// Abort is Error followed by c.Abort, for middleware.
func Abort(c *gin.Context, status int, kind, message string, details any) {
	Error(c, status, kind, message, details)
	c.Abort()
}

func write(c *gin.Context, status int, res any) {
	env, err := envelope.Encode(c.Request.Context(), responseID(c), res, time.Now(), signer(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorBody{Error: "Internal", Message: "failed to encode response"})
		return
	}
	c.JSON(status, env)
}
