package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFold(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Crime and Punishment", "crime and punishment"},
		{"Émile Zola", "emile zola"},
		{"STRASSE", "strasse"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Fold(tt.in))
		})
	}
}

func TestContains(t *testing.T) {
	assert.True(t, Contains("Crime and Punishment", "crime"))
	assert.True(t, Contains("Les Misérables", "MISERABLES"))
	assert.False(t, Contains("Dune", "crime"))
}

func TestPlainText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "  A  quiet\nbook ", "A quiet book"},
		{"tags", "<p>First</p><p>Second <b>bold</b></p>", "First Second bold"},
		{"entities", "Tom &amp; Jerry", "Tom & Jerry"},
		{"script dropped", "Hi<script>alert(1)</script> there", "Hi there"},
		{"line breaks", "one<br>two", "one two"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PlainText(tt.in))
		})
	}
}
