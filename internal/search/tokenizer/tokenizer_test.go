package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTerms(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "lowercases and splits on punctuation",
			text: "Hello, World!",
			want: []string{"hello", "world"},
		},
		{
			name: "drops stop words",
			text: "the quick fox and the hound",
			want: []string{"quick", "fox", "hound"},
		},
		{
			name: "drops single characters",
			text: "a b c go",
			want: []string{"go"},
		},
		{
			name: "keeps duplicates for frequency counting",
			text: "kafka kafka kafka",
			want: []string{"kafka", "kafka", "kafka"},
		},
		{
			name: "plural matches singular",
			text: "topics",
			want: []string{"topic"},
		},
		{
			name: "keeps digits",
			text: "http2 server",
			want: []string{"http2", "server"},
		},
		{
			name: "empty input",
			text: "",
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Terms(tt.text))
		})
	}
}

func TestStemConvergence(t *testing.T) {
	// Different surface forms of the same word should index to the same
	// term so queries match across them.
	pairs := [][2]string{
		{"topics", "topic"},
		{"discussions", "discussion"},
		{"replies", "reply"},
		{"posted", "post"},
		{"posting", "post"},
	}

	for _, pair := range pairs {
		left := Terms(pair[0])
		right := Terms(pair[1])
		assert.Equal(t, right, left, "%q and %q should stem alike", pair[0], pair[1])
	}
}
