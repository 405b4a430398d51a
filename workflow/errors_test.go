package workflow

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfWorkflowErrors(t *testing.T) {
	assert.Equal(t, KindValidation, KindOf(Validationf("bad input")))
	assert.Equal(t, KindPermissionDenied, KindOf(PermissionDeniedf("no")))
	assert.Equal(t, KindAlreadyProcessed, KindOf(ErrAlreadyDeducted))
	assert.Equal(t, KindAlreadyProcessed, KindOf(fmt.Errorf("release: %w", ErrNothingToRestore)))
}

func TestKindOfDatabaseConflicts(t *testing.T) {
	// Two writers minting the same document number retry on Conflict
	// instead of surfacing an internal error.
	conflicts := []error{
		errors.New("Error 1062 (23000): Duplicate entry 'WD2608310007' for key 'request_no'"),
		errors.New("UNIQUE constraint failed: workflow_requests.request_no"),
		errors.New("ERROR: duplicate key value violates unique constraint \"request_no\" (SQLSTATE 23505)"),
		errors.New("Error 1205: Lock wait timeout exceeded; try restarting transaction"),
		errors.New("Error 1213: Deadlock found when trying to get lock"),
	}
	for _, err := range conflicts {
		assert.Equal(t, KindConflict, KindOf(err), err.Error())
	}

	assert.Equal(t, KindInternal, KindOf(errors.New("dial tcp: connection refused")))
}

func TestErrorsIsMatchesOnKind(t *testing.T) {
	err := InsufficientQuantityf("item X: requested 5 but only 2 available")
	assert.True(t, errors.Is(err, ErrInsufficientQuantity))
	assert.False(t, errors.Is(err, ErrInvalidTransition))
}
