package observability

import (
	"time"

	"github.com/Mindburn-Labs/warden/pkg/consensus"
	"github.com/Mindburn-Labs/warden/pkg/contracts"
	"github.com/Mindburn-Labs/warden/pkg/emergency"
)

func consensusEventForTest() consensus.Event {
	return consensus.Event{
		Action: "propose",
		Proposal: contracts.ProposalState{
			ID:        "STATUS_CHANGE:wd-1:test",
			Operation: contracts.OpStatusChange,
		},
		Actor: "wd-1",
		At:    time.Now(),
	}
}

func emergencyEventForTest() emergency.Event {
	return emergency.Event{
		Action:  "report",
		Subject: "custodian",
		Actor:   "wd-1",
		At:      time.Now(),
	}
}
