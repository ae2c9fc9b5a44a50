package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/joeycumines/go-kthread/gamematch"
	"github.com/joeycumines/go-kthread/kthread"
)

type playerResult struct {
	ability int
	number  int
	done    bool
}

func (a *app) cmdMatch(ctx context.Context, args []string) int {
	flags := flag.NewFlagSet("match", flag.ContinueOnError)
	flags.SetOutput(a.stderr)
	var shared sharedFlags
	shared.register(flags)
	size := flags.Int("size", 0, "players per match (required)")
	var abilities intList
	flags.Var(&abilities, "abilities", "comma-separated ability of each player, 1-3 (required)")
	if err := flags.Parse(args); err != nil {
		return 1
	}
	if *size <= 0 || len(abilities) == 0 {
		fmt.Fprintln(a.stderr, "kthread: match: -size and -abilities are required")
		flags.Usage()
		return 1
	}

	cfg, logger, err := a.setup(&shared)
	if err != nil {
		fmt.Fprintf(a.stderr, "kthread: match: %v\n", err)
		return 1
	}

	players, err := playMatch(ctx, *size, abilities, cfg.kernelOptions(logger)...)
	if err != nil {
		fmt.Fprintf(a.stderr, "kthread: match: %v\n", err)
		return 1
	}

	for i, p := range players {
		switch {
		case !p.done:
			fmt.Fprintf(a.stdout, "player-%d ability=%d blocked\n", i+1, p.ability)
		case p.number == gamematch.NoMatch:
			fmt.Fprintf(a.stdout, "player-%d ability=%d no match\n", i+1, p.ability)
		default:
			fmt.Fprintf(a.stdout, "player-%d ability=%d match=%d\n", i+1, p.ability, p.number)
		}
	}
	return 0
}

// playMatch forks a player per ability, in order, and joins them. Players
// left waiting for an incomplete match leave the kernel deadlocked, which
// ends the session.
func playMatch(ctx context.Context, size int, abilities []int, opts ...kthread.Option) ([]playerResult, error) {
	k, err := kthread.New(opts...)
	if err != nil {
		return nil, err
	}
	gm, err := gamematch.New(k, size)
	if err != nil {
		return nil, err
	}

	players := make([]playerResult, len(abilities))
	err = k.Run(ctx, func() {
		threads := make([]*kthread.KThread, len(abilities))
		for i, ability := range abilities {
			players[i].ability = ability
			threads[i] = k.Fork(fmt.Sprintf("player-%d", i+1), func() {
				players[i].number = gm.Play(ability)
				players[i].done = true
			})
		}
		for _, t := range threads {
			t.Join()
		}
	})
	if err != nil && !errors.Is(err, kthread.ErrDeadlock) {
		return nil, err
	}
	return players, nil
}
