package workflow

import (
	"testing"

	"asset-app/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuardRoleGrants(t *testing.T) {
	guard := Guard{}

	criticalRequest := func(status string) *models.WorkflowRequest {
		return &models.WorkflowRequest{
			EntityType:  models.EntityRequest,
			Criticality: models.CriticalityCritical,
			Status:      status,
			InitiatorID: maker.ID,
			ReceiverID:  maker.ID,
		}
	}

	tests := []struct {
		name    string
		actor   Actor
		action  Action
		req     *models.WorkflowRequest
		allowed bool
	}{
		{"warehouseman creates", storeman, ActionCreate, criticalRequest(models.StatusDraft), true},
		{"site engineer creates", maker, ActionCreate, criticalRequest(models.StatusDraft), true},
		{"manager cannot create", manager, ActionCreate, criticalRequest(models.StatusDraft), false},

		{"manager verifies", manager, ActionVerify, criticalRequest(models.StatusPendingVerification), true},
		{"warehouseman cannot verify", storeman, ActionVerify, criticalRequest(models.StatusPendingVerification), false},

		{"director approves", director, ActionApprove, criticalRequest(models.StatusPendingApproval), true},
		{"manager cannot approve", manager, ActionApprove, criticalRequest(models.StatusPendingApproval), false},

		{"warehouseman releases", storeman, ActionRelease, criticalRequest(models.StatusApproved), true},
		{"director cannot release", director, ActionRelease, criticalRequest(models.StatusApproved), false},

		{"manager declines", manager, ActionDecline, criticalRequest(models.StatusPendingVerification), true},
		{"director declines", director, ActionDecline, criticalRequest(models.StatusPendingApproval), true},

		{"admin bypasses everything", Actor{ID: 99, Role: models.RoleAdmin}, ActionRelease, criticalRequest(models.StatusApproved), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := guard.CanPerform(tt.actor, tt.action, tt.req)
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Equal(t, KindPermissionDenied, KindOf(err))
			}
		})
	}
}

func TestGuardSeparationOfDuties(t *testing.T) {
	guard := Guard{}

	req := &models.WorkflowRequest{
		EntityType:  models.EntityRequest,
		Criticality: models.CriticalityCritical,
		Status:      models.StatusPendingVerification,
		InitiatorID: 7,
	}

	// The maker never verifies their own critical request, whatever
	// their role.
	err := guard.CanPerform(Actor{ID: 7, Role: models.RoleProjectManager}, ActionVerify, req)
	require.Error(t, err)
	assert.Equal(t, KindPermissionDenied, KindOf(err))

	req.Status = models.StatusPendingApproval
	req.VerifiedBy = 8

	err = guard.CanPerform(Actor{ID: 7, Role: models.RoleAssetDirector}, ActionApprove, req)
	require.Error(t, err)

	// Nor may the verifier also approve.
	err = guard.CanPerform(Actor{ID: 8, Role: models.RoleAssetDirector}, ActionApprove, req)
	require.Error(t, err)

	assert.NoError(t, guard.CanPerform(Actor{ID: 9, Role: models.RoleAssetDirector}, ActionApprove, req))
}

func TestGuardOwnershipEscapeHatches(t *testing.T) {
	guard := Guard{}

	req := &models.WorkflowRequest{
		EntityType:  models.EntityBorrowedTool,
		Criticality: models.CriticalityBasic,
		Status:      models.StatusPendingVerification,
		InitiatorID: maker.ID,
		ReceiverID:  maker.ID,
	}

	// Initiator pulls back their own request before release.
	assert.NoError(t, guard.CanPerform(maker, ActionCancel, req))
	require.Error(t, guard.CanPerform(bystander, ActionCancel, req))

	// After release only a supervisor cancels.
	req.Status = models.StatusBorrowed
	require.Error(t, guard.CanPerform(maker, ActionCancel, req))
	assert.NoError(t, guard.CanPerform(boss, ActionCancel, req))

	// Nobody cancels a terminal request.
	req.Status = models.StatusReturned
	require.Error(t, guard.CanPerform(boss, ActionCancel, req))

	// Custody holder may return, a stranger may not.
	req.Status = models.StatusBorrowed
	assert.NoError(t, guard.CanPerform(maker, ActionReturn, req))
	assert.NoError(t, guard.CanPerform(storeman, ActionReturn, req))
	require.Error(t, guard.CanPerform(bystander, ActionReturn, req))
}
