package luhn_test

import (
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"

	"github.com/jeffreyyong/globalone-gateway/internal/luhn"
)

func TestValidator_Validate(t *testing.T) {
	testCases := []struct {
		description    string
		pan            string
		expectedErr    bool
		expectedErrMsg string
	}{
		{
			"valid visa test card",
			"4444333322221111",
			false,
			"",
		},
		{
			"declined test card",
			"4000300011112220",
			false,
			"",
		},
		{
			"luhn validation failed",
			"4444333322221112",
			true,
			"luhn validation failed",
		},
		{
			"contains alphabet",
			"ab1ldaf716",
			true,
			"pan contains non numeric or spaces",
		},
		{
			"contains spaces",
			"4444 3333 2222 1111",
			true,
			"pan contains non numeric or spaces",
		},
		{
			"too short",
			"49927398716",
			true,
			"pan length out of range",
		},
		{
			"nineteen digits",
			"6011000000000000001",
			false,
			"",
		},
		{
			"empty",
			"",
			true,
			"pan is empty",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			err := luhn.Validate(tc.pan)
			if tc.expectedErr {
				assert.EqualError(t, err, tc.expectedErrMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidator_ValidateGeneratedCards(t *testing.T) {
	for i := 0; i < 20; i++ {
		pan := gofakeit.CreditCardNumber(&gofakeit.CreditCardOptions{Types: []string{"visa", "mastercard"}})
		assert.NoError(t, luhn.Validate(pan), pan)
	}
}
