package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

func TestValidationHelper_ValidateStruct(t *testing.T) {
	vh := NewValidationHelper()

	t.Run("valid deal request", func(t *testing.T) {
		req := CreateDealRequest{SellerID: 2, BuyerID: 1, Amount: 100}

		err := vh.ValidateStruct(&req)
		assert.NoError(t, err)
	})

	t.Run("missing parties", func(t *testing.T) {
		req := CreateDealRequest{Amount: 100}

		err := vh.ValidateStruct(&req)
		assert.Error(t, err)

		validationErrors, ok := err.(validator.ValidationErrors)
		assert.True(t, ok)
		assert.Len(t, validationErrors, 2) // SellerID, BuyerID
	})

	t.Run("seller trading with themselves", func(t *testing.T) {
		req := CreateDealRequest{SellerID: 5, BuyerID: 5, Amount: 100}

		err := vh.ValidateStruct(&req)
		assert.Error(t, err)

		validationErrors, ok := err.(validator.ValidationErrors)
		assert.True(t, ok)
		assert.Len(t, validationErrors, 1)
		assert.Equal(t, "seller", validationErrors[0].Field())
		assert.Equal(t, "SellerID", validationErrors[0].StructField())
		assert.Equal(t, "nefield", validationErrors[0].Tag())
	})
}

func TestFieldErrors(t *testing.T) {
	vh := NewValidationHelper()

	tests := []struct {
		name    string
		input   any
		details map[string]string
	}{
		{
			name:    "missing parties",
			input:   &CreateDealRequest{Amount: 100},
			details: map[string]string{"seller": "is required", "buyer": "is required"},
		},
		{
			name: "amount and code limits",
			input: &struct {
				Code string `json:"code" validate:"max=4"`
				Sum  int64  `json:"sum" validate:"gt=0"`
			}{Code: "TOO-LONG", Sum: 0},
			details: map[string]string{"code": "must be at most 4 characters", "sum": "must be greater than 0"},
		},
		{
			name: "arbitration winner",
			input: &struct {
				Winner string `json:"winner" validate:"required,oneof=buyer seller"`
			}{Winner: "operator"},
			details: map[string]string{"winner": "must be one of: buyer, seller"},
		},
		{
			name: "seller by id or username",
			input: &struct {
				Seller         int64  `json:"seller" validate:"required_without=SellerUsername"`
				SellerUsername string `json:"sellerUsername"`
			}{},
			details: map[string]string{"seller": "is required unless sellerUsername is given"},
		},
		{
			name: "unmapped tag",
			input: &struct {
				Contact string `json:"contact" validate:"email"`
			}{Contact: "nobody"},
			details: map[string]string{"contact": `failed the "email" check`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := vh.ValidateStruct(tt.input)
			assert.Error(t, err)
			assert.Equal(t, tt.details, FieldErrors(fmt.Errorf("wrapped: %w", err)))
		})
	}

	assert.Nil(t, FieldErrors(errors.New("plain")))
	assert.Nil(t, FieldErrors(nil))
}

func TestSendErrorResponse(t *testing.T) {
	t.Run("error response without validation errors", func(t *testing.T) {
		w := httptest.NewRecorder()

		SendErrorResponse(w, "Something went wrong", http.StatusInternalServerError, nil)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

		var response ErrorResponse
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.Equal(t, "Something went wrong", response.Error)
		assert.Nil(t, response.Details)
	})

	t.Run("error response with validation errors", func(t *testing.T) {
		vh := NewValidationHelper()
		validationErr := vh.ValidateStruct(&CreateDealRequest{SellerID: 3, BuyerID: 3})
		assert.Error(t, validationErr)

		w := httptest.NewRecorder()
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, fmt.Errorf("create deal: %w", validationErr))

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var response ErrorResponse
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.Equal(t, "Validation failed", response.Error)
		assert.Equal(t, map[string]string{"seller": "seller and buyer must be different users"}, response.Details)
	})

	t.Run("plain error carries no details", func(t *testing.T) {
		w := httptest.NewRecorder()

		SendErrorResponse(w, "Deal not found", http.StatusNotFound, errors.New("deal 7: not found"))

		assert.Equal(t, http.StatusNotFound, w.Code)

		var response ErrorResponse
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.Equal(t, "Deal not found", response.Error)
		assert.Nil(t, response.Details)
	})
}
