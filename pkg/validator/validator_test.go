package validator

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type interactionBody struct {
	UserID    string `json:"user_id" validate:"required,max=128"`
	ProductID string `json:"product_id" validate:"required,max=128"`
	Type      string `json:"type" validate:"required,oneof=view click cart"`
}

func TestValidate_OK(t *testing.T) {
	err := Validate(interactionBody{UserID: "u-1", ProductID: "p-1", Type: "view"})
	assert.NoError(t, err)
}

func TestValidate_Fields(t *testing.T) {
	err := Validate(interactionBody{ProductID: "p-1", Type: "like"})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, map[string]string{
		"UserID": "is required",
		"Type":   "must be one of: view click cart",
	}, valErr.Fields())
	assert.Contains(t, err.Error(), "field 'UserID' is required")
}

func TestDecodeAndValidate(t *testing.T) {
	body := `{"user_id":"u-1","product_id":"p-1","type":"cart"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))

	var dst interactionBody
	require.NoError(t, DecodeAndValidate(req, &dst))
	assert.Equal(t, "cart", dst.Type)
}

func TestDecodeAndValidate_BadJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"user_id":`))

	var dst interactionBody
	err := DecodeAndValidate(req, &dst)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode request body")
}

func TestDecodeAndValidate_UnknownField(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"user_id":"u","product_id":"p","type":"view","extra":1}`))

	var dst interactionBody
	assert.Error(t, DecodeAndValidate(req, &dst))
}
