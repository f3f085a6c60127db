package evidence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSearchQuery(t *testing.T) {
	tests := []struct {
		name string
		in   string
		out  string
	}{
		{"strips condition words", "Logitech G Pro X Superlight good condition", "Logitech G Pro X Superlight"},
		{"caps at five words", "Sony WH-1000XM4 wireless noise cancelling headphones black edition", "Sony WH-1000XM4 wireless noise cancelling"},
		{"keeps model names intact", "iPhone 13 Pro", "iPhone 13 Pro"},
		{"all stopwords falls back to input", "new used mint", "new used mint"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.out, SearchQuery(tt.in))
		})
	}
}
