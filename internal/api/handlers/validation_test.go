package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testInput struct {
	Subject   string `json:"subject" validate:"required,startswith=at://"`
	Direction string `json:"direction" validate:"required,oneof=up down"`
}

func TestValidateInput(t *testing.T) {
	tests := []struct {
		name    string
		input   testInput
		wantErr string
	}{
		{name: "valid", input: testInput{Subject: "at://did:plc:a/c/r", Direction: "up"}},
		{name: "missing subject", input: testInput{Direction: "up"}, wantErr: "subject is required"},
		{name: "bad scheme", input: testInput{Subject: "https://x", Direction: "up"}, wantErr: "subject must start with at://"},
		{name: "bad direction", input: testInput{Subject: "at://x", Direction: "sideways"}, wantErr: "direction must be one of: up down"},
		{name: "both missing", input: testInput{}, wantErr: "subject is required; direction is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateInput(tt.input)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantErr, err.Error())
		})
	}
}
