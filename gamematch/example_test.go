package gamematch_test

import (
	"context"
	"fmt"

	"github.com/joeycumines/go-kthread/gamematch"
	"github.com/joeycumines/go-kthread/kthread"
)

func ExampleGameMatch_Play() {
	k, err := kthread.New()
	if err != nil {
		panic(err)
	}
	match, err := gamematch.New(k, 2)
	if err != nil {
		panic(err)
	}

	_ = k.Run(context.Background(), func() {
		var players []*kthread.KThread
		for _, p := range []struct {
			name    string
			ability int
		}{
			{"alice", gamematch.AbilityBeginner},
			{"bob", gamematch.AbilityExpert},
			{"carol", gamematch.AbilityBeginner},
			{"dave", gamematch.AbilityExpert},
		} {
			players = append(players, k.Fork(p.name, func() {
				n := match.Play(p.ability)
				fmt.Printf("%s joined match %d\n", p.name, n)
			}))
		}
		for _, p := range players {
			p.Join()
		}
		fmt.Println("unknown ability:", match.Play(42))
	})

	//output:
	//carol joined match 1
	//dave joined match 2
	//alice joined match 1
	//bob joined match 2
	//unknown ability: -1
}
