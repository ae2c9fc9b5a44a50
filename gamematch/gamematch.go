// Package gamematch groups players of equal ability into matches, each
// identified by a unique, consecutive match number.
//
// Players are kthread threads. A player calling [GameMatch.Play] blocks
// until enough players of the same ability have arrived to fill a match,
// then all of them return the same number.
package gamematch

import (
	"errors"
	"fmt"

	"github.com/joeycumines/go-kthread/kthread"
)

// Player abilities.
const (
	AbilityBeginner     = 1
	AbilityIntermediate = 2
	AbilityExpert       = 3
)

// NoMatch is returned by Play for an unknown ability.
const NoMatch = -1

// ErrInvalidMatchSize is returned by New for a match size that is not positive.
var ErrInvalidMatchSize = errors.New("gamematch: match size must be positive")

const numAbilities = AbilityExpert - AbilityBeginner + 1

// GameMatch forms matches of a fixed size, independently per ability.
//
// Match numbers start at 1 and are shared across abilities, so two matches
// never have the same number, and numbers are handed out in the order
// matches fill.
type GameMatch struct {
	k       *kthread.Kernel
	classes [numAbilities]abilityClass

	// counterLock guards next, the number of the next match to fill.
	counterLock *kthread.Lock
	next        int

	matchSize int
}

// abilityClass is the waiting room for one ability.
type abilityClass struct {
	lock *kthread.Lock
	cond *kthread.Cond

	// waiting is the number of players in the match currently filling.
	waiting int
	// arrivals counts every player ever admitted.
	arrivals int
	// matches holds the number of each filled match, in fill order, so the
	// player with arrival index i belongs to matches[i/matchSize].
	matches []int
}

// New returns a GameMatch whose matches hold matchSize players each. It may
// be called from any goroutine.
func New(k *kthread.Kernel, matchSize int) (*GameMatch, error) {
	if matchSize <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidMatchSize, matchSize)
	}
	g := &GameMatch{
		k:           k,
		counterLock: kthread.NewLock(k),
		next:        1,
		matchSize:   matchSize,
	}
	for i := range g.classes {
		lock := kthread.NewLock(k)
		g.classes[i] = abilityClass{
			lock: lock,
			cond: kthread.NewCond(lock),
		}
	}
	return g, nil
}

// MatchSize returns the number of players per match.
func (g *GameMatch) MatchSize() int {
	return g.matchSize
}

// Play blocks the calling thread until its match is full, and returns the
// match number. An ability other than AbilityBeginner,
// AbilityIntermediate, or AbilityExpert returns NoMatch immediately.
func (g *GameMatch) Play(ability int) int {
	c := g.class(ability)
	if c == nil {
		return NoMatch
	}

	c.lock.Acquire()
	group := c.arrivals / g.matchSize
	c.arrivals++
	c.waiting++

	if c.waiting == g.matchSize {
		g.counterLock.Acquire()
		number := g.next
		g.next++
		g.counterLock.Release()

		c.matches = append(c.matches, number)
		c.waiting = 0
		c.cond.WakeAll()

		g.k.Logger().Debug().
			Int("ability", ability).
			Int("match", number).
			Int("size", g.matchSize).
			Log("match filled")
	}

	for group >= len(c.matches) {
		c.cond.Sleep()
	}
	number := c.matches[group]
	c.lock.Release()

	return number
}

// Waiting returns the number of players of the given ability currently
// waiting for their match to fill. It must be called from a thread of the
// kernel, and returns 0 for an unknown ability.
func (g *GameMatch) Waiting(ability int) int {
	c := g.class(ability)
	if c == nil {
		return 0
	}
	c.lock.Acquire()
	defer c.lock.Release()
	return c.waiting
}

func (g *GameMatch) class(ability int) *abilityClass {
	if ability < AbilityBeginner || ability > AbilityExpert {
		return nil
	}
	return &g.classes[ability-AbilityBeginner]
}
