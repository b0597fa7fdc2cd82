// Package envelope implements the {id, ts, pd, sig} wire wrapper shared by every
// ledger request and response.
package envelope

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrMalformed is wrapped by every Decode failure.
var ErrMalformed = errors.New("malformed envelope")

// ResponseTSLayout stamps response envelopes with microsecond precision.
const ResponseTSLayout = "2006-01-02T15:04:05.000000Z"

// Mode selects how strictly inbound bodies are held to the envelope shape.
type Mode string

const (
	// ModeAuto accepts an envelope or a bare payload object.
	ModeAuto Mode = "auto"
	// ModeStrict accepts only complete envelopes.
	ModeStrict Mode = "strict"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeAuto:
		return ModeAuto, nil
	case ModeStrict:
		return ModeStrict, nil
	}
	return "", fmt.Errorf("unknown envelope mode %q", s)
}

// Request is a decoded inbound envelope. Bare is set when the body was accepted
// as a payload without a wrapper; ID, TS and Sig are empty then.
type Request struct {
	ID      string
	TS      string
	Payload json.RawMessage
	Sig     string
	Bare    bool
}

// Response is the outbound wrapper. Res carries the operation result or the error body.
type Response struct {
	ID  string `json:"id"`
	TS  string `json:"ts"`
	Res any    `json:"res"`
	Sig string `json:"sig"`
}

var envelopeKeys = []string{"id", "ts", "sig"}

// Decode parses raw into a Request. In ModeAuto a body carrying none of the
// id, ts or sig keys is treated as the payload itself, or, when it has only a
// pd key, as that pd. Any body that names an envelope key must be complete.
func Decode(raw []byte, mode Mode) (Request, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return Request{}, fmt.Errorf("%w: body is not a JSON object", ErrMalformed)
	}

	wrapped := false
	for _, k := range envelopeKeys {
		if _, ok := fields[k]; ok {
			wrapped = true
			break
		}
	}

	if !wrapped && mode != ModeStrict {
		if pd, ok := fields["pd"]; ok && len(fields) == 1 {
			if !isObject(pd) {
				return Request{}, fmt.Errorf("%w: pd must be an object", ErrMalformed)
			}
			return Request{Payload: pd, Bare: true}, nil
		}
		return Request{Payload: json.RawMessage(raw), Bare: true}, nil
	}

	var req Request
	for _, f := range []struct {
		key string
		dst *string
	}{
		{"id", &req.ID},
		{"ts", &req.TS},
		{"sig", &req.Sig},
	} {
		v, ok := fields[f.key]
		if !ok {
			return Request{}, fmt.Errorf("%w: missing %s", ErrMalformed, f.key)
		}
		if err := json.Unmarshal(v, f.dst); err != nil || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			return Request{}, fmt.Errorf("%w: %s must be a string", ErrMalformed, f.key)
		}
	}
	pd, ok := fields["pd"]
	if !ok {
		return Request{}, fmt.Errorf("%w: missing pd", ErrMalformed)
	}
	if !isObject(pd) {
		return Request{}, fmt.Errorf("%w: pd must be an object", ErrMalformed)
	}
	req.Payload = pd
	return req, nil
}

func isObject(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}

// FromQuery turns query parameters into a payload object. Keys in listKeys, and
// any key repeated in the query, become string arrays; the rest stay scalars.
func FromQuery(q url.Values, listKeys ...string) json.RawMessage {
	lists := make(map[string]struct{}, len(listKeys))
	for _, k := range listKeys {
		lists[k] = struct{}{}
	}
	pd := make(map[string]any, len(q))
	for k, vs := range q {
		if len(vs) == 0 {
			continue
		}
		if _, ok := lists[k]; ok || len(vs) > 1 {
			pd[k] = append([]string(nil), vs...)
			continue
		}
		pd[k] = vs[0]
	}
	raw, _ := json.Marshal(pd)
	return raw
}

// Encode wraps res for the wire. An empty id is replaced by a fresh UUID so
// responses are always correlatable.
func Encode(ctx context.Context, id string, res any, now time.Time, signer Signer) (Response, error) {
	if id == "" {
		id = uuid.NewString()
	}
	resp := Response{ID: id, TS: now.UTC().Format(ResponseTSLayout), Res: res}
	if signer == nil {
		signer = NoopSigner{}
	}
	msg, err := json.Marshal(struct {
		ID  string `json:"id"`
		TS  string `json:"ts"`
		Res any    `json:"res"`
	}{resp.ID, resp.TS, resp.Res})
	if err != nil {
		return Response{}, fmt.Errorf("encode envelope: %w", err)
	}
	sig, err := signer.Sign(ctx, msg)
	if err != nil {
		return Response{}, fmt.Errorf("sign envelope: %w", err)
	}
	resp.Sig = sig
	return resp, nil
}
