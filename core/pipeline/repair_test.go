package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRepair(t *testing.T) {
	t.Run("Merges broken lowercase word", func(t *testing.T) {
		assert.Equal(t, "institución", Repair("institu ción"))
	})

	t.Run("Merges broken all-caps word", func(t *testing.T) {
		assert.Equal(t, "ESTUDIANTES", Repair("ESTUDIANTE S"))
	})

	t.Run("Merges broken capitalized word", func(t *testing.T) {
		assert.Equal(t, "Antonio", Repair("Anton io"))
	})

	t.Run("Resolves nested three-way break", func(t *testing.T) {
		assert.Equal(t, "institución", Repair("institu ci ón"))
	})

	t.Run("Repairs document line keeping structure", func(t *testing.T) {
		got := Repair("ARTÍCULO 1\nUn derech o al debido proces o.")
		assert.Equal(t, "ARTÍCULO 1\nUn derecho al debido proceso.", got)
	})

	t.Run("Leaves legitimate short words alone", func(t *testing.T) {
		assert.Equal(t, "el derecho a la defensa", Repair("el derecho a la defensa"))
		assert.Equal(t, "blanco y negro", Repair("blanco y negro"))
		assert.Equal(t, "derecho al debido proceso", Repair("derecho al debido proceso"))
	})

	t.Run("Joins adjacent all-caps words", func(t *testing.T) {
		// Known limitation of the all-caps merge, preserved on purpose
		assert.Equal(t, "TÍTULOI", Repair("TÍTULO I"))
	})

	t.Run("Normalizes horizontal whitespace", func(t *testing.T) {
		assert.Equal(t, "uno dos\ntres", Repair("uno\t  dos  \n  tres"))
	})

	t.Run("Empty input stays empty", func(t *testing.T) {
		assert.Equal(t, "", Repair(""))
	})

	t.Run("Idempotent on repaired text", func(t *testing.T) {
		once := Repair("Un derech o al debido proces o.")
		assert.Equal(t, once, Repair(once))
	})
}

func TestApproxTokens(t *testing.T) {
	t.Run("Quarter of character count", func(t *testing.T) {
		assert.Equal(t, 5, ApproxTokens("12345678901234567890"))
	})

	t.Run("Minimum of one token", func(t *testing.T) {
		assert.Equal(t, 1, ApproxTokens(""))
		assert.Equal(t, 1, ApproxTokens("abc"))
	})
}
