package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/Mindburn-Labs/warden/pkg/audit"
	"github.com/Mindburn-Labs/warden/pkg/consensus"
	"github.com/Mindburn-Labs/warden/pkg/contracts"
	"github.com/Mindburn-Labs/warden/pkg/emergency"
	"github.com/Mindburn-Labs/warden/pkg/registry"
	"github.com/Mindburn-Labs/warden/pkg/store"
)

const archiveTimeout = 5 * time.Second

// auditRegistryHook chains every committed registration and
// deactivation into the audit trail.
func auditRegistryHook(trail *audit.Store, logger *slog.Logger) registry.EventHook {
	return func(ev registry.Event) {
		if _, err := trail.Append(audit.EntryRegistry, ev.Watchdog.ID, ev.Action, ev.Watchdog.ID, ev.Watchdog); err != nil {
			logger.Error("audit append failed", "action", ev.Action, "error", err)
		}
	}
}

// auditConsensusHook chains every committed proposal event into the
// audit trail. Parameter changes are a configuration mutation, not a
// proposal lifecycle step, and are recorded under the config entry type.
func auditConsensusHook(trail *audit.Store, logger *slog.Logger) consensus.EventHook {
	return func(ev consensus.Event) {
		if ev.Action == "params_update" {
			if _, err := trail.Append(audit.EntryConfig, "consensus", ev.Action, ev.Actor, ev.Params); err != nil {
				logger.Error("audit append failed", "action", ev.Action, "error", err)
			}
			return
		}
		if _, err := trail.Append(audit.EntryConsensus, ev.Proposal.ID, ev.Action, ev.Actor, ev.Proposal); err != nil {
			logger.Error("audit append failed", "action", ev.Action, "error", err)
		}
	}
}

// auditEmergencyHook chains every committed report, pause and clear.
func auditEmergencyHook(trail *audit.Store, logger *slog.Logger) emergency.EventHook {
	return func(ev emergency.Event) {
		var payload any
		switch {
		case ev.Episode != nil:
			payload = ev.Episode
		case ev.Report != nil:
			payload = ev.Report
		}
		if _, err := trail.Append(audit.EntryEmergency, ev.Subject, ev.Action, ev.Actor, payload); err != nil {
			logger.Error("audit append failed", "action", ev.Action, "error", err)
		}
	}
}

// archiveConsensusHook writes terminal proposal states and parameter
// changes to the archive. Archiving is best effort; a failure is logged
// and never blocks the engines.
func archiveConsensusHook(archiver store.Archiver, logger *slog.Logger) consensus.EventHook {
	return func(ev consensus.Event) {
		ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
		defer cancel()

		var err error
		switch ev.Action {
		case "execute", "expire":
			err = archiver.ArchiveProposal(ctx, ev.Proposal)
		case "params_update":
			if ev.Params != nil {
				err = archiver.ArchiveParameterChange(ctx, store.ParameterChange{
					Actor:     ev.Actor,
					Params:    *ev.Params,
					ChangedAt: ev.At,
				})
			}
		default:
			return
		}
		if err != nil {
			logger.Error("archive write failed", "action", ev.Action, "error", err)
		}
	}
}

func archiveEmergencyHook(archiver store.Archiver, logger *slog.Logger) emergency.EventHook {
	return func(ev emergency.Event) {
		ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
		defer cancel()

		var err error
		switch ev.Action {
		case "report":
			if ev.Report != nil {
				err = archiver.ArchiveReport(ctx, *ev.Report)
			}
		case "pause", "clear":
			if ev.Episode != nil {
				err = archiver.ArchivePause(ctx, *ev.Episode)
			}
		default:
			return
		}
		if err != nil {
			logger.Error("archive write failed", "action", ev.Action, "error", err)
		}
	}
}

// loggingCollaborator stands in for the custodial bridge system when no
// downstream integration is configured. Submissions are logged and
// acknowledged.
type loggingCollaborator struct {
	logger *slog.Logger
}

func (c *loggingCollaborator) SubmitData(ctx context.Context, kind, actor string, payload json.RawMessage) error {
	c.logger.Info("data submission forwarded", "kind", kind, "actor", actor, "bytes", len(payload))
	return nil
}

func (c *loggingCollaborator) SubmitProven(ctx context.Context, kind, actor string, payload json.RawMessage) error {
	c.logger.Info("proven submission forwarded", "kind", kind, "actor", actor, "bytes", len(payload))
	return nil
}

// loggingExecutionSink applies executed authority operations. Deployments
// integrating with the bridge contract replace this with a real adapter.
type loggingExecutionSink struct {
	logger *slog.Logger
}

func (s *loggingExecutionSink) OnAuthorityOperationExecuted(ctx context.Context, op contracts.OperationType, target string, payload json.RawMessage) error {
	s.logger.Warn("authority operation executed", "operation", string(op), "target", target)
	return nil
}

type loggingPauseSink struct {
	logger *slog.Logger
}

func (s *loggingPauseSink) OnEmergencyPause(ctx context.Context, subject string) error {
	s.logger.Warn("emergency pause triggered", "subject", subject)
	return nil
}
