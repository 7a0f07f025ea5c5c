package validator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	CustomerID string `json:"customer_id" validate:"required,uuid"`
	Quantity   int    `json:"quantity" validate:"gte=1,lte=99"`
}

func TestValidate(t *testing.T) {
	valid := sampleRequest{CustomerID: "7f9c24e5-37fe-43f3-9a5f-68e8d9e5c001", Quantity: 2}
	assert.NoError(t, Validate(valid))

	invalid := sampleRequest{CustomerID: "nope", Quantity: 0}
	err := Validate(invalid)
	require.Error(t, err)

	verr, ok := err.(*ValidationError)
	require.True(t, ok)
	assert.Equal(t, "must be a valid UUID", verr.Fields()["customerid"])
	assert.Equal(t, "must be at least 1", verr.Fields()["quantity"])
}

func TestDecodeAndValidate(t *testing.T) {
	body := `{"customer_id":"7f9c24e5-37fe-43f3-9a5f-68e8d9e5c001","quantity":3}`
	var req sampleRequest
	require.NoError(t, DecodeAndValidate(strings.NewReader(body), &req))
	assert.Equal(t, 3, req.Quantity)

	var bad sampleRequest
	err := DecodeAndValidate(strings.NewReader(`{"quantity":"three"}`), &bad)
	assert.Error(t, err)
}

func TestDecodeAndValidateRejectsUnknownFields(t *testing.T) {
	var req sampleRequest
	err := DecodeAndValidate(strings.NewReader(`{"customer_id":"7f9c24e5-37fe-43f3-9a5f-68e8d9e5c001","quantity":1,"extra":true}`), &req)
	assert.Error(t, err)
}
