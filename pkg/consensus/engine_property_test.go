//go:build property
// +build property

package consensus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/Mindburn-Labs/warden/pkg/contracts"
	"github.com/Mindburn-Labs/warden/pkg/registry"
)

// countingSink counts threshold crossings.
type countingSink struct{ executions int }

func (s *countingSink) OnAuthorityOperationExecuted(context.Context, contracts.OperationType, string, json.RawMessage) error {
	s.executions++
	return nil
}

// TestExecutionFiresExactlyOnceAtThreshold drives a proposal with an
// arbitrary sequence of votes (duplicates included) and checks:
// the sink fires exactly once iff the number of distinct voters
// reaches M, and the vote set never exceeds the distinct voter count.
func TestExecutionFiresExactlyOnceAtThreshold(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("sink fires exactly once at the Mth distinct vote", prop.ForAll(
		func(voterPicks []int, m int) bool {
			now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
			clock := func() time.Time { return now }

			reg := registry.New().WithClock(clock)
			for i := 0; i < 7; i++ {
				if err := reg.Register(fmt.Sprintf("wd-%d", i)); err != nil {
					return false
				}
			}

			sink := &countingSink{}
			eng, err := NewEngine(reg, contracts.ConsensusParameters{
				RequiredVotes:  m,
				TotalWatchdogs: 7,
				VotingPeriod:   2 * time.Hour,
			}, sink)
			if err != nil {
				return false
			}
			eng.WithClock(clock)

			id, err := eng.Propose(context.Background(), contracts.OpStatusChange, "Q1", nil, "wd-0")
			if err != nil {
				return false
			}

			distinct := make(map[string]bool)
			for _, pick := range voterPicks {
				voter := fmt.Sprintf("wd-%d", ((pick%7)+7)%7)
				err := eng.Vote(context.Background(), id, voter)
				switch {
				case err == nil:
					distinct[voter] = true
				case errors.Is(err, contracts.ErrDuplicateVote):
				case errors.Is(err, contracts.ErrAlreadyExecuted):
				default:
					return false
				}
				if len(distinct) >= m && sink.executions != 1 {
					return false
				}
				if len(distinct) < m && sink.executions != 0 {
					return false
				}
			}

			state, err := eng.GetProposal(id)
			if err != nil {
				return false
			}
			return len(state.Voters) == len(distinct)
		},
		gen.SliceOf(gen.IntRange(0, 20)),
		gen.IntRange(2, 7),
	))

	properties.TestingRun(t)
}
