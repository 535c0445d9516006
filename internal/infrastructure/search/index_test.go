package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "splits on punctuation and lowers",
			input: "Bosch GSB-13 RE, Professional",
			want:  []string{"bosch", "gsb", "13", "re", "professional"},
		},
		{
			name:  "cyrillic input",
			input: "Перфоратор аккумуляторный",
			want:  []string{"перфоратор", "аккумуляторный"},
		},
		{
			name:  "drops single-rune tokens and duplicates",
			input: "a bb a bb c",
			want:  []string{"bb"},
		},
		{
			name:  "empty input",
			input: "  ,;  ",
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.input))
		})
	}
}
