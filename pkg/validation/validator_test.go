package validation

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type samplePayload struct {
	UserID string   `json:"user_id" binding:"required,userid"`
	Name   string   `json:"name" binding:"required,username"`
	Tags   []string `json:"tags" binding:"omitempty,dive,required"`
	IDs    []string `json:"user_ids" binding:"required,min=1"`
}

func bindSample(body string) error {
	var p samplePayload
	return binding.JSON.BindBody([]byte(body), &p)
}

func TestToDetails_UsesJSONNames(t *testing.T) {
	Init()

	err := bindSample(`{"user_ids":[]}`)
	require.Error(t, err)

	details := ToDetails(err)
	assert.Equal(t, "is required", details["user_id"])
	assert.Equal(t, "is required", details["name"])
	assert.Equal(t, "must contain at least 1 item(s)", details["user_ids"])
	assert.Len(t, details, 3)
}

func TestToDetails_Aliases(t *testing.T) {
	Init()

	long := strings.Repeat("a", 51)
	err := bindSample(`{"user_id":"` + long + `","name":"Alice","user_ids":["u1"]}`)
	require.Error(t, err)
	assert.Equal(t, map[string]string{"user_id": "must be at most 50 characters long"}, ToDetails(err))

	err = bindSample(`{"user_id":"u1","name":"` + strings.Repeat("n", 101) + `","user_ids":["u1"]}`)
	require.Error(t, err)
	assert.Equal(t, map[string]string{"name": "must be at most 100 characters long"}, ToDetails(err))

	require.NoError(t, bindSample(`{"user_id":"u1","name":"Alice","user_ids":["u1"]}`))
}

func TestToDetails_JSONErrors(t *testing.T) {
	var p samplePayload
	err := json.Unmarshal([]byte(`{"user_id":`), &p)
	assert.Equal(t, map[string]string{"payload": "invalid json"}, ToDetails(err))

	err = json.Unmarshal([]byte(`{"user_id":5}`), &p)
	assert.Equal(t, map[string]string{"user_id": "must be a string"}, ToDetails(err))

	assert.Nil(t, ToDetails(nil))
}
