package middleware

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/attendance-ledger/internal/domain/ledgererr"
	"github.com/oksasatya/attendance-ledger/pkg/envelope"
	"github.com/oksasatya/attendance-ledger/pkg/response"
)

// MaxEnvelopeBytes caps request bodies; templates are the largest payloads.
const MaxEnvelopeBytes = 8 << 20

// Envelope decodes the request into an envelope.Request before any handler runs.
// POST bodies go through envelope.Decode in the given mode; GET query parameters
// become a bare payload, with listKeys always decoded as arrays. Verified
// requests are bound with response.Bind; anything else is rejected as
// MalformedEnvelope.
func Envelope(mode envelope.Mode, signer envelope.Signer, listKeys ...string) gin.HandlerFunc {
	if signer == nil {
		signer = envelope.NoopSigner{}
	}
	return func(c *gin.Context) {
		var req envelope.Request
		if c.Request.Method == http.MethodGet {
			req = envelope.Request{Payload: envelope.FromQuery(c.Request.URL.Query(), listKeys...), Bare: true}
		} else {
			raw, err := readBody(c)
			if err == nil {
				req, err = envelope.Decode(raw, mode)
			}
			if err != nil {
				response.Bind(c, envelope.Request{}, signer)
				response.Abort(c, http.StatusBadRequest, string(ledgererr.MalformedEnvelope), err.Error(), nil)
				return
			}
		}

		if err := signer.Verify(c.Request.Context(), req); err != nil {
			response.Bind(c, req, signer)
			response.Abort(c, http.StatusBadRequest, string(ledgererr.MalformedEnvelope), "signature rejected", nil)
			return
		}
		response.Bind(c, req, signer)
		if req.ID != "" {
			c.Set("envelope_id", req.ID)
		}
		c.Next()
	}
}

var errBodyTooLarge = errors.New("malformed envelope: body too large")

func readBody(c *gin.Context) ([]byte, error) {
	if c.Request.Body == nil {
		return nil, envelope.ErrMalformed
	}
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, MaxEnvelopeBytes+1))
	if err != nil {
		return nil, err
	}
	if len(raw) > MaxEnvelopeBytes {
		return nil, errBodyTooLarge
	}
	return raw, nil
}
