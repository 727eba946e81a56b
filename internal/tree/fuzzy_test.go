package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "lowercases", input: "Comprar Leche", want: "comprar leche"},
		{name: "collapses whitespace", input: "  pan   de\tmolde ", want: "pan de molde"},
		{name: "empty", input: "   ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeText(tt.input))
		})
	}
}

func TestFuzzyEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{name: "exact", a: "leche", b: "leche", want: true},
		{name: "case and space insensitive", a: "Leche  Entera", b: "leche entera", want: true},
		{name: "containment long enough", a: "nadar", b: "nadar a las 8 martes", want: true},
		{name: "containment other direction", a: "nadar a las 8 martes", b: "nadar", want: true},
		{name: "short strings never contain", a: "pan", b: "pan de molde", want: false},
		{name: "short exact still equal", a: "pan", b: "Pan", want: true},
		{name: "unrelated", a: "leche", b: "huevos", want: false},
		{name: "both empty", a: "", b: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FuzzyEqual(tt.a, tt.b))
		})
	}
}

func TestSameName(t *testing.T) {
	assert.True(t, SameName("Compras", "compras"))
	assert.True(t, SameName(" compras ", "compras"))
	assert.False(t, SameName("compras", "viajes"))
}
