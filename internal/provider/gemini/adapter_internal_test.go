package gemini

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/forge/internal/domain"
)

func TestToSDKRequest_MaxOutputTokens(t *testing.T) {
	tests := []struct {
		name      string
		maxTokens int
		expected  int32
	}{
		{name: "unset", maxTokens: 0, expected: 0},
		{name: "in range", maxTokens: 512, expected: 512},
		{name: "clamped", maxTokens: math.MaxInt, expected: math.MaxInt32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, config := toSDKRequest(&domain.CompletionRequest{Model: "gemini-2.5-flash", MaxTokens: tt.maxTokens})
			require.Equal(t, tt.expected, config.MaxOutputTokens)
		})
	}
}
