package dicegame

import (
	"math/rand"
	"sync"
)

const dieSides = 6

// Roller produces dice throws. Implemented by Dice; tests substitute a
// scripted roller.
type Roller interface {
	Roll() DiceRoll
}

// Dice rolls two six-sided dice from an injected random source so that
// outcomes are reproducible under a fixed seed. One Dice is shared by every
// room, hence the mutex (rand.Rand is not safe for concurrent use).
type Dice struct {
	mu sync.Mutex
	r  *rand.Rand
}

func NewDice(src rand.Source) *Dice {
	return &Dice{r: rand.New(src)}
}

func (d *Dice) Roll() DiceRoll {
	d.mu.Lock()
	defer d.mu.Unlock()
	d1 := d.r.Intn(dieSides) + 1
	d2 := d.r.Intn(dieSides) + 1
	return DiceRoll{D1: d1, D2: d2, Sum: d1 + d2}
}
