package selftest

import (
	"sort"

	"github.com/joeycumines/go-kthread/gamematch"
)

const (
	beginner     = gamematch.AbilityBeginner
	intermediate = gamematch.AbilityIntermediate
	expert       = gamematch.AbilityExpert
)

// player is one participant of a match scenario.
type player struct {
	name     string
	ability  int
	instance int
	// want is the exact expected match number, or 0 for any valid number.
	want int
	// blocks is set if the player can never be matched, whatever the
	// order of arrival.
	blocks bool
}

func matchSuite() Suite {
	return Suite{
		Name:        "match",
		Description: "GameMatch grouping, numbering, and invalid input",
		Cases: []Case{
			{Name: "invalid-ability", Fn: func(t *T) {
				playMatches(t, 1, 1, []player{
					{name: "Player1", ability: 4, want: gamematch.NoMatch},
					{name: "Player2", ability: 0, want: gamematch.NoMatch},
				})
			}},
			{Name: "one-full-match", Fn: func(t *T) {
				playMatches(t, 3, 1, []player{
					{name: "Player1", ability: expert, want: 1},
					{name: "Player2", ability: expert, want: 1},
					{name: "Player3", ability: expert, want: 1},
				})
			}},
			{Name: "one-match-per-ability", Fn: func(t *T) {
				playMatches(t, 1, 1, []player{
					{name: "Expert1", ability: expert},
					{name: "Beginner1", ability: beginner},
					{name: "IntPlayer1", ability: intermediate},
				})
			}},
			{Name: "consecutive-matches", Fn: func(t *T) {
				playMatches(t, 1, 1, []player{
					{name: "Beginner1", ability: beginner},
					{name: "Beginner2", ability: beginner},
					{name: "Beginner3", ability: beginner},
				})
			}},
			{Name: "independent-instances", Fn: func(t *T) {
				playMatches(t, 1, 2, []player{
					{name: "Expert1", ability: expert, instance: 1},
					{name: "Beginner1", ability: beginner},
					{name: "Beginner4", ability: beginner, instance: 1},
					{name: "Beginner2", ability: beginner},
					{name: "Beginner3", ability: beginner},
					{name: "I1_5", ability: intermediate, instance: 1},
				})
			}},
			{Name: "not-enough-players", Fn: func(t *T) {
				playMatches(t, 2, 1, []player{
					{name: "Beginner1", ability: beginner, blocks: true},
					{name: "IntPlayer1", ability: intermediate, blocks: true},
				})
			}},
			{Name: "uneven-players", Fn: func(t *T) {
				playMatches(t, 2, 1, []player{
					{name: "IntPlayer1", ability: intermediate},
					{name: "IntPlayer2", ability: intermediate},
					{name: "IntPlayer3", ability: intermediate},
					{name: "IntPlayer4", ability: intermediate},
					{name: "IntPlayer5", ability: intermediate},
				})
			}},
			{Name: "fork-order-independent", Fn: func(t *T) {
				playMatches(t, 2, 1, []player{
					{name: "B1", ability: beginner, want: 1},
					{name: "I1", ability: intermediate, blocks: true},
					{name: "E1", ability: expert, blocks: true},
					{name: "B2", ability: beginner, want: 1},
				})
			}},
		},
	}
}

// playMatches forks the players, waits until each has either returned or
// is left over in a match that can never fill, and checks every returned
// number, along with the numbering invariants of each instance: every
// match has exactly size players of one ability, and the numbers are
// consecutive from 1.
func playMatches(t *T, size, instances int, players []player) {
	k := t.Kernel()
	matches := make([]*gamematch.GameMatch, instances)
	for i := range matches {
		g, err := gamematch.New(k, size)
		if err != nil {
			t.Fatalf("new game match: %v", err)
		}
		matches[i] = g
	}

	results := make([]int, len(players))
	returned := make([]bool, len(players))
	for i, p := range players {
		k.Fork(p.name, func() {
			results[i] = matches[p.instance].Play(p.ability)
			returned[i] = true
			t.Logf("%s (ability %d) got match %d", p.name, p.ability, results[i])
		})
	}

	type class struct{ instance, ability int }
	leftover := make(map[class]int)
	for _, p := range players {
		if p.ability >= beginner && p.ability <= expert {
			leftover[class{p.instance, p.ability}]++
		}
	}
	wantReturned := len(players)
	for c, n := range leftover {
		leftover[c] = n % size
		wantReturned -= n % size
	}

	for attempt := 0; ; attempt++ {
		done := countTrue(returned) == wantReturned
		for c, n := range leftover {
			if matches[c.instance].Waiting(c.ability) != n {
				done = false
			}
		}
		if done {
			break
		}
		if attempt == 10000 {
			t.Fatalf("players did not settle: %d of %d returned", countTrue(returned), wantReturned)
		}
		k.Yield()
	}

	for i, p := range players {
		switch {
		case p.blocks:
			t.Check(!returned[i], "%s should not have matched, got %d", p.name, results[i])
		case !returned[i]:
			t.Logf("%s left over, waiting for a match", p.name)
		case p.want != 0:
			t.Check(results[i] == p.want, "%s: expected match %d, got %d", p.name, p.want, results[i])
		default:
			t.Check(results[i] > 0, "%s: expected a valid match number, got %d", p.name, results[i])
		}
	}

	for inst := range matches {
		checkNumbering(t, size, inst, players, results, returned)
	}
}

func countTrue(values []bool) (n int) {
	for _, v := range values {
		if v {
			n++
		}
	}
	return n
}

func checkNumbering(t *T, size, instance int, players []player, results []int, returned []bool) {
	members := make(map[int][]int)
	for i, p := range players {
		if p.instance != instance || !returned[i] || results[i] <= 0 {
			continue
		}
		members[results[i]] = append(members[results[i]], i)
	}
	numbers := make([]int, 0, len(members))
	for n, idx := range members {
		numbers = append(numbers, n)
		t.Check(len(idx) == size, "instance %d match %d has %d players, expected %d", instance, n, len(idx), size)
		for _, i := range idx {
			t.Check(players[i].ability == players[idx[0]].ability, "instance %d match %d mixes abilities", instance, n)
		}
	}
	sort.Ints(numbers)
	for i, n := range numbers {
		t.Check(n == i+1, "instance %d match numbers not consecutive from 1: %v", instance, numbers)
	}
}
