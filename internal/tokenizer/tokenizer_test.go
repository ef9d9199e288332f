package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimator_CountTokens(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{name: "empty", text: "", want: 0},
		{name: "one char", text: "a", want: 1},
		{name: "four chars", text: "abcd", want: 1},
		{name: "five chars", text: "abcde", want: 2},
		{name: "hundred chars", text: string(make([]byte, 100)), want: 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Estimator{}.CountTokens(tt.text))
		})
	}
}

func TestEstimator_Deterministic(t *testing.T) {
	text := "Call me Ishmael. Some years ago - never mind how long precisely."

	first := Estimator{}.CountTokens(text)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Estimator{}.CountTokens(text))
	}
}
