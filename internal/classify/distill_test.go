package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistillIdea_StripsLeadingFiller(t *testing.T) {
	tests := []struct {
		name string
		idea string
		want string
	}{
		{name: "me gustaria", idea: "me gustaría ver película de terror", want: "ver película de terror"},
		{name: "tengo que", idea: "tengo que llamar al médico", want: "llamar al médico"},
		{name: "quiero", idea: "quiero aprender guitarra", want: "aprender guitarra"},
		{name: "no filler untouched", idea: "fondo azul", want: "fondo azul"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DistillIdea(tt.idea, "nota distinta sin solapamiento"))
		})
	}
}

// TestDistillIdea_CondensesLiteralCopy verifies an idea overlapping
// the note above the threshold keeps only its first four meaningful
// tokens, with original capitalization.
func TestDistillIdea_CondensesLiteralCopy(t *testing.T) {
	note := "quiero comprar zapatos en el centro de la ciudad con Ana"
	idea := "comprar zapatos en el centro de la ciudad con Ana"

	got := DistillIdea(idea, note)
	assert.Equal(t, "comprar zapatos centro ciudad", got)
}

func TestDistillIdea_KeepsDistinctLongIdea(t *testing.T) {
	// Low overlap with the note: left alone apart from the word cap.
	got := DistillIdea("bíceps en día de espalda", "nota sobre otra cosa completamente")
	assert.Equal(t, "bíceps en día de espalda", got)
}

func TestDistillIdea_CapsAtFiveWords(t *testing.T) {
	got := DistillIdea("una dos tres cuatro cinco seis siete", "")
	assert.Equal(t, "una dos tres cuatro cinco", got)
}

// TestDistillIdea_CreationCommandsBecomeEmpty verifies management
// commands never survive as ideas.
func TestDistillIdea_CreationCommandsBecomeEmpty(t *testing.T) {
	tests := []struct {
		name string
		idea string
	}{
		{name: "creation keyword", idea: "añade el subgrupo desayuno"},
		{name: "command verb", idea: "pon esto en compras"},
		{name: "structure word in head", idea: "subgrupo cena"},
		{name: "group mention", idea: "un grupo llamado viajes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, DistillIdea(tt.idea, "crea el subgrupo desayuno"))
		})
	}
}

// TestDistillIdea_VerbatimNoteBecomesEmpty verifies the idea is never
// the whole note.
func TestDistillIdea_VerbatimNoteBecomesEmpty(t *testing.T) {
	note := "pan de molde"
	assert.Empty(t, DistillIdea("Pan de molde", note))
}

func TestDistillIdea_Empty(t *testing.T) {
	assert.Empty(t, DistillIdea("", "cualquier nota"))
}

func TestIsDeleteIntent(t *testing.T) {
	tests := []struct {
		note string
		want bool
	}{
		{note: "elimina la idea de nadar", want: true},
		{note: "ya no quiero ver Alien", want: true},
		{note: "quita la leche de compras", want: true},
		{note: "BORRA la entrada", want: true},
		{note: "comprar leche", want: false},
		{note: "quiero ver Alien", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.note, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDeleteIntent(tt.note))
		})
	}
}
