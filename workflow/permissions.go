package workflow

import (
	"asset-app/models"

	"golang.org/x/exp/slices"
)

type grantKey struct {
	Entity      string
	Criticality string
	Action      Action
}

// roleGrants is the static (entity_type, criticality, action) → roles
// table. Ownership escape hatches (initiator cancel, custody return)
// are evaluated in CanPerform on top of it.
var roleGrants = map[grantKey][]string{}

func init() {
	for _, entity := range allEntities {
		for _, crit := range allCriticalities {
			grant := func(action Action, roles ...string) {
				roleGrants[grantKey{entity, crit, action}] = roles
			}

			grant(ActionCreate, models.RoleWarehouseman, models.RoleSiteEngineer)
			grant(ActionReturn, models.RoleWarehouseman)
			grant(ActionComplete, models.RoleWarehouseman)
			grant(ActionCancel, models.RoleSupervisor)

			if entity == models.EntityTransfer {
				grant(ActionReceive, models.RoleWarehouseman, models.RoleSiteEngineer)
			}

			// Maker, verifier and authorizer are three distinct roles
			// on the critical path.
			if crit == models.CriticalityCritical {
				grant(ActionVerify, models.RoleProjectManager)
				grant(ActionApprove, models.RoleAssetDirector)
				grant(ActionRelease, models.RoleWarehouseman)
				grant(ActionDecline, models.RoleProjectManager, models.RoleAssetDirector)
			}
		}
	}
}

// statuses where the initiator may still pull back their own request.
var preReleaseStatuses = []string{
	models.StatusDraft,
	models.StatusPendingVerification,
	models.StatusPendingApproval,
	models.StatusApproved,
}

type Guard struct{}

// CanPerform decides (role, action, request snapshot) → allow/deny.
// It never mutates anything and is evaluated before every
// state-changing call.
func (g Guard) CanPerform(actor Actor, action Action, req *models.WorkflowRequest) error {
	if actor.Role == models.RoleAdmin {
		return nil
	}

	switch action {
	case ActionCancel:
		// Initiator may cancel their own request before release;
		// supervisors may cancel at any non-terminal state.
		if actor.ID == req.InitiatorID && slices.Contains(preReleaseStatuses, req.Status) {
			return nil
		}
		if g.roleGranted(actor, action, req) && !req.IsTerminal() {
			return nil
		}
		return PermissionDeniedf("%s may not cancel request %s at status %s", actor.Role, req.RequestNo, req.Status)

	case ActionReturn:
		// Whoever holds custody may hand the items back.
		if actor.ID == req.ReceiverID && req.ReceiverID != 0 {
			return nil
		}
		if g.roleGranted(actor, action, req) {
			return nil
		}
		return PermissionDeniedf("%s does not hold custody of request %s", actor.Role, req.RequestNo)

	case ActionVerify:
		if !g.roleGranted(actor, action, req) {
			return PermissionDeniedf("%s may not verify %s requests", actor.Role, req.EntityType)
		}
		// Separation of duties: the maker never verifies their own
		// critical request.
		if req.Criticality == models.CriticalityCritical && actor.ID == req.InitiatorID {
			return PermissionDeniedf("initiator may not verify their own request")
		}
		return nil

	case ActionApprove:
		if !g.roleGranted(actor, action, req) {
			return PermissionDeniedf("%s may not approve %s requests", actor.Role, req.EntityType)
		}
		if req.Criticality == models.CriticalityCritical {
			if actor.ID == req.InitiatorID {
				return PermissionDeniedf("initiator may not approve their own request")
			}
			if req.VerifiedBy != 0 && actor.ID == req.VerifiedBy {
				return PermissionDeniedf("verifier may not also approve")
			}
		}
		return nil
	}

	if g.roleGranted(actor, action, req) {
		return nil
	}
	return PermissionDeniedf("%s is not authorized to %s %s requests", actor.Role, action, req.EntityType)
}

func (g Guard) roleGranted(actor Actor, action Action, req *models.WorkflowRequest) bool {
	roles := roleGrants[grantKey{req.EntityType, req.Criticality, action}]
	return slices.Contains(roles, actor.Role)
}
