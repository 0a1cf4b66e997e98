package dicegame

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiceFacesInRange(t *testing.T) {
	d := NewDice(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		roll := d.Roll()
		assert.GreaterOrEqual(t, roll.D1, 1)
		assert.LessOrEqual(t, roll.D1, 6)
		assert.GreaterOrEqual(t, roll.D2, 1)
		assert.LessOrEqual(t, roll.D2, 6)
		assert.Equal(t, roll.D1+roll.D2, roll.Sum)
	}
}

func TestDiceDeterministicUnderFixedSeed(t *testing.T) {
	d1 := NewDice(rand.NewSource(42))
	d2 := NewDice(rand.NewSource(42))
	for i := 0; i < 100; i++ {
		assert.Equal(t, d1.Roll(), d2.Roll())
	}
}
