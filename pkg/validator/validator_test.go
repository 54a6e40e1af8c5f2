package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRequest struct {
	Postcode string `validate:"required,ukpostcode"`
	Line1    string `validate:"required"`
	Speed    int    `validate:"gt=0"`
}

func TestValidate_Success(t *testing.T) {
	err := Validate(testRequest{Postcode: "SW1A 1AA", Line1: "10 Downing Street", Speed: 80})
	assert.NoError(t, err)
}

func TestValidate_UKPostcode(t *testing.T) {
	valid := []string{"SW1A 1AA", "m1 1ae", "B33 8TH", "CR26XH", "DN55 1PT"}
	for _, pc := range valid {
		err := Validate(testRequest{Postcode: pc, Line1: "x", Speed: 1})
		assert.NoError(t, err, "postcode %q should be valid", pc)
	}

	invalid := []string{"12345", "SW1A", "HELLO WORLD", ""}
	for _, pc := range invalid {
		err := Validate(testRequest{Postcode: pc, Line1: "x", Speed: 1})
		assert.Error(t, err, "postcode %q should be invalid", pc)
	}
}

func TestValidate_FieldMessages(t *testing.T) {
	err := Validate(testRequest{Postcode: "SW1A 1AA", Speed: 0})
	require.Error(t, err)

	var valErr *ValidationError
	require.True(t, errors.As(err, &valErr))

	fields := valErr.Fields()
	assert.Equal(t, "is required", fields["Line1"])
	assert.Equal(t, "must be greater than 0", fields["Speed"])
}
