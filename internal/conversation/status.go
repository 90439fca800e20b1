package conversation

import (
	"context"

	"github.com/google/uuid"
	"github.com/jonathan/executive-intake/internal/types"
)

// allowedStatus lists the explicit status changes. COMPLETED is only reached together with
// PhaseCompleted, and COMPLETED and ABANDONED are terminal.
var allowedStatus = map[types.Status][]types.Status{
	types.StatusActive: {types.StatusPaused, types.StatusAbandoned},
	types.StatusPaused: {types.StatusActive, types.StatusAbandoned},
}

// CanTransition reports whether a conversation may move from one status to another.
func CanTransition(from, to types.Status) bool {
	for _, s := range allowedStatus[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ChangeStatus moves the conversation to target if it is still at expectedVersion.
// Requesting the current status is a no-op that returns the conversation unchanged.
func (o *Orchestrator) ChangeStatus(ctx context.Context, id uuid.UUID, target types.Status, expectedVersion int64) (*types.Conversation, error) {
	conv, err := o.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if conv.Version != expectedVersion {
		return conv, &ConflictError{ID: id, ExpectedVersion: expectedVersion}
	}
	return o.applyStatus(ctx, conv, target)
}

// Pause moves an active conversation to PAUSED.
func (o *Orchestrator) Pause(ctx context.Context, id uuid.UUID) (*types.Conversation, error) {
	return o.changeCurrent(ctx, id, types.StatusPaused)
}

// Resume moves a paused conversation back to ACTIVE.
func (o *Orchestrator) Resume(ctx context.Context, id uuid.UUID) (*types.Conversation, error) {
	return o.changeCurrent(ctx, id, types.StatusActive)
}

// Abandon closes an active or paused conversation for good.
func (o *Orchestrator) Abandon(ctx context.Context, id uuid.UUID) (*types.Conversation, error) {
	return o.changeCurrent(ctx, id, types.StatusAbandoned)
}

func (o *Orchestrator) changeCurrent(ctx context.Context, id uuid.UUID, target types.Status) (*types.Conversation, error) {
	conv, err := o.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return o.applyStatus(ctx, conv, target)
}

func (o *Orchestrator) applyStatus(ctx context.Context, conv *types.Conversation, target types.Status) (*types.Conversation, error) {
	if conv.Status == target && !conv.IsClosed() {
		return conv, nil
	}
	if conv.IsClosed() || !CanTransition(conv.Status, target) {
		return conv, &InvalidTransitionError{ID: conv.ID, From: conv.Status, To: target}
	}

	next := conv.Clone()
	next.Status = target
	return o.commit(ctx, conv, next, false, o.now())
}
