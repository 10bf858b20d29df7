package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Mindburn-Labs/warden/pkg/consensus"
	"github.com/Mindburn-Labs/warden/pkg/emergency"
)

// ConsensusHook returns an event hook that feeds the proposal lifecycle
// counters. Hooks run inside the engine's critical section, so this only
// increments counters and returns.
func (p *Provider) ConsensusHook() consensus.EventHook {
	return func(ev consensus.Event) {
		ctx := context.Background()
		attrs := metric.WithAttributes(
			attribute.String("operation", string(ev.Proposal.Operation)),
		)
		switch ev.Action {
		case "propose":
			if p.proposalsCreated != nil {
				p.proposalsCreated.Add(ctx, 1, attrs)
			}
		case "vote":
			if p.votesCast != nil {
				p.votesCast.Add(ctx, 1, attrs)
			}
		case "execute":
			if p.proposalsExecuted != nil {
				p.proposalsExecuted.Add(ctx, 1, attrs)
			}
		case "expire":
			if p.proposalsExpired != nil {
				p.proposalsExpired.Add(ctx, 1, attrs)
			}
		}
	}
}

// EmergencyHook returns an event hook that feeds the critical-report and
// pause counters.
func (p *Provider) EmergencyHook() emergency.EventHook {
	return func(ev emergency.Event) {
		ctx := context.Background()
		attrs := metric.WithAttributes(
			attribute.String("subject", ev.Subject),
		)
		switch ev.Action {
		case "report":
			if p.reportsCritical != nil {
				p.reportsCritical.Add(ctx, 1, attrs)
			}
		case "pause":
			if p.pausesTriggered != nil {
				p.pausesTriggered.Add(ctx, 1, attrs)
			}
		}
	}
}
