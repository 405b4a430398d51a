package workflow

import (
	"asset-app/models"

	"golang.org/x/exp/slices"
)

// ledgerEffect is the quantity side effect bound to a transition.
type ledgerEffect int

const (
	effectNone ledgerEffect = iota
	effectDeduct
	effectTransferIn
	effectReturn
	effectCancel
)

type transitionKey struct {
	Entity      string
	Criticality string
	Action      Action
}

type transition struct {
	From   []string
	To     string
	Effect ledgerEffect
}

// transitionTable keys every legal transition by
// (entity_type, criticality, action). Basic entities carry no
// verify/approve/release rows: their streamlined path runs at creation
// and emits the same ledger effects and audit entries as the full
// chain.
var transitionTable = map[transitionKey]transition{}

var allEntities = []string{
	models.EntityWithdrawal,
	models.EntityBorrowedTool,
	models.EntityTransfer,
	models.EntityRequest,
}

var allCriticalities = []string{
	models.CriticalityBasic,
	models.CriticalityCritical,
}

func init() {
	for _, entity := range allEntities {
		for _, crit := range allCriticalities {
			buildTransitions(entity, crit)
		}
	}
}

// releaseTarget is the status a request lands in when stock leaves the
// warehouse.
func releaseTarget(entity string) string {
	switch entity {
	case models.EntityBorrowedTool:
		return models.StatusBorrowed
	case models.EntityTransfer:
		return models.StatusInTransit
	default:
		return models.StatusReleased
	}
}

func buildTransitions(entity, crit string) {
	put := func(action Action, from []string, to string, effect ledgerEffect) {
		transitionTable[transitionKey{entity, crit, action}] = transition{From: from, To: to, Effect: effect}
	}

	released := releaseTarget(entity)

	if crit == models.CriticalityCritical {
		put(ActionVerify, []string{models.StatusPendingVerification}, models.StatusPendingApproval, effectNone)
		put(ActionApprove, []string{models.StatusPendingApproval}, models.StatusApproved, effectNone)
		put(ActionRelease, []string{models.StatusApproved}, released, effectDeduct)
		put(ActionDecline, []string{models.StatusPendingVerification, models.StatusPendingApproval, models.StatusApproved}, models.StatusDeclined, effectCancel)
	}

	switch entity {
	case models.EntityTransfer:
		put(ActionReceive, []string{models.StatusInTransit}, models.StatusReceived, effectTransferIn)
		put(ActionComplete, []string{models.StatusReceived}, models.StatusCompleted, effectNone)
	case models.EntityBorrowedTool:
		put(ActionReturn, []string{models.StatusBorrowed}, models.StatusReturned, effectReturn)
	default:
		put(ActionReturn, []string{models.StatusReleased}, models.StatusReturned, effectReturn)
		put(ActionComplete, []string{models.StatusReleased}, models.StatusCompleted, effectNone)
	}

	// Received is past the point of no return: the destination already
	// holds the stock, so undoing takes a reverse transfer, not a
	// cancel.
	cancelFrom := []string{
		models.StatusDraft,
		models.StatusPendingVerification,
		models.StatusPendingApproval,
		models.StatusApproved,
		released,
	}
	put(ActionCancel, cancelFrom, models.StatusCancelled, effectCancel)
}

// findTransition resolves the rule for an action against the current
// status. A miss is always InvalidTransition; the machine upgrades it
// to AlreadyProcessed when the stage was in fact already executed.
func findTransition(entity, crit string, action Action, current string) (transition, error) {
	t, ok := transitionTable[transitionKey{entity, crit, action}]
	if !ok {
		return transition{}, InvalidTransitionf("%s is not defined for %s/%s", action, entity, crit)
	}
	if !slices.Contains(t.From, current) {
		return transition{}, InvalidTransitionf("%s is not legal from status %s", action, current)
	}
	return t, nil
}

// stageTimestamp reports whether the stage an action drives has already
// been executed on this request, which turns an InvalidTransition into
// the idempotent AlreadyProcessed answer (stale one-time action links).
func stageTimestamp(req *models.WorkflowRequest, action Action) bool {
	switch action {
	case ActionVerify:
		return req.VerifiedAt != nil
	case ActionApprove:
		return req.ApprovedAt != nil
	case ActionRelease:
		return req.ReleasedAt != nil
	case ActionReceive:
		return req.ReceivedAt != nil
	case ActionReturn:
		return req.ReturnedAt != nil
	case ActionComplete:
		return req.CompletedAt != nil
	case ActionCancel:
		return req.CancelledAt != nil
	case ActionDecline:
		return req.DeclinedAt != nil
	}
	return false
}
