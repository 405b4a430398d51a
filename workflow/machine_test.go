package workflow

import (
	"fmt"
	"testing"
	"time"

	"asset-app/database"
	"asset-app/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	maker     = Actor{ID: 1, Role: models.RoleSiteEngineer}
	storeman  = Actor{ID: 2, Role: models.RoleWarehouseman}
	manager   = Actor{ID: 3, Role: models.RoleProjectManager}
	director  = Actor{ID: 4, Role: models.RoleAssetDirector}
	boss      = Actor{ID: 5, Role: models.RoleSupervisor}
	bystander = Actor{ID: 9, Role: models.RoleSiteEngineer}
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

func seedProject(t *testing.T, db *gorm.DB, code string) models.Project {
	t.Helper()
	project := models.Project{Code: code, Name: code, Status: "active"}
	require.NoError(t, db.Create(&project).Error)
	return project
}

func seedCategory(t *testing.T, db *gorm.DB, code string, critical bool) models.Category {
	t.Helper()
	category := models.Category{Code: code, Name: code, IsCritical: critical}
	require.NoError(t, db.Create(&category).Error)
	return category
}

func seedAsset(t *testing.T, db *gorm.DB, category models.Category, project models.Project, itemCode string, qty int, consumable bool) models.Asset {
	t.Helper()
	asset := models.Asset{
		ItemCode:       itemCode,
		ProjectID:      int64(project.ID),
		Name:           itemCode,
		Uom:            "PCS",
		CategoryID:     category.ID,
		Consumable:     consumable,
		UnitCost:       decimal.NewFromInt(100),
		QuantityOnHand: qty,
	}
	require.NoError(t, db.Create(&asset).Error)
	return asset
}

func reloadAsset(t *testing.T, db *gorm.DB, id int64) models.Asset {
	t.Helper()
	var asset models.Asset
	require.NoError(t, db.First(&asset, "id = ?", id).Error)
	return asset
}

func countAuditEvents(t *testing.T, db *gorm.DB, requestID int64) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.AuditEvent{}).Where("request_id = ?", requestID).Count(&n).Error)
	return n
}

func countLedgerEntries(t *testing.T, db *gorm.DB, assetID int64) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.StockLedgerEntry{}).Where("asset_id = ?", assetID).Count(&n).Error)
	return n
}

func TestStreamlinedBasicWithdrawal(t *testing.T) {
	db := newTestDB(t)
	project := seedProject(t, db, "SITE-A")
	category := seedCategory(t, db, "CONS", false)
	asset := seedAsset(t, db, category, project, "CEMENT-50KG", 100, true)

	m := NewMachine(db, nil)
	req, err := m.CreateRequest(CreateInput{
		EntityType: models.EntityWithdrawal,
		ProjectID:  int64(project.ID),
		Actor:      maker,
		Purpose:    "slab pour",
		Lines:      []CreateLine{{ItemCode: "CEMENT-50KG", Quantity: 10}},
	})
	require.NoError(t, err)

	assert.Equal(t, models.CriticalityBasic, req.Criticality)
	assert.Equal(t, models.StatusReleased, req.Status)
	assert.NotNil(t, req.VerifiedAt)
	assert.NotNil(t, req.ApprovedAt)
	assert.NotNil(t, req.ReleasedAt)
	assert.Equal(t, "streamlined", req.VerifyNotes)

	// Create plus one entry per collapsed stage.
	assert.EqualValues(t, 4, countAuditEvents(t, db, req.ID))

	got := reloadAsset(t, db, asset.ID)
	assert.Equal(t, 90, got.QuantityOnHand)
	assert.Equal(t, 0, got.QuantityReserved)
}

func TestCriticalFullPath(t *testing.T) {
	db := newTestDB(t)
	project := seedProject(t, db, "SITE-A")
	category := seedCategory(t, db, "HEQP", true)
	asset := seedAsset(t, db, category, project, "GENSET-20KVA", 3, false)

	m := NewMachine(db, nil)
	req, err := m.CreateRequest(CreateInput{
		EntityType: models.EntityBorrowedTool,
		ProjectID:  int64(project.ID),
		Actor:      maker,
		ReceiverID: maker.ID,
		Lines:      []CreateLine{{ItemCode: "GENSET-20KVA", Quantity: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, models.CriticalityCritical, req.Criticality)
	assert.Equal(t, models.StatusPendingVerification, req.Status)

	got := reloadAsset(t, db, asset.ID)
	assert.Equal(t, 3, got.QuantityOnHand)
	assert.Equal(t, 1, got.QuantityReserved)

	res, err := m.Apply(ActionInput{Action: ActionVerify, RequestID: req.ID, Actor: manager})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingApproval, res.NewStatus)

	res, err = m.Apply(ActionInput{Action: ActionApprove, RequestID: req.ID, Actor: director})
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, res.NewStatus)

	res, err = m.Apply(ActionInput{Action: ActionRelease, RequestID: req.ID, Actor: storeman})
	require.NoError(t, err)
	assert.Equal(t, models.StatusBorrowed, res.NewStatus)

	got = reloadAsset(t, db, asset.ID)
	assert.Equal(t, 2, got.QuantityOnHand)
	assert.Equal(t, 0, got.QuantityReserved)

	assert.EqualValues(t, 4, countAuditEvents(t, db, req.ID))
}

func TestDamagedReturnOpensIncident(t *testing.T) {
	db := newTestDB(t)
	project := seedProject(t, db, "SITE-A")
	category := seedCategory(t, db, "TOOL", false)
	asset := seedAsset(t, db, category, project, "DRILL-HD", 5, false)

	m := NewMachine(db, nil)
	req, err := m.CreateRequest(CreateInput{
		EntityType: models.EntityBorrowedTool,
		ProjectID:  int64(project.ID),
		Actor:      maker,
		ReceiverID: maker.ID,
		Lines:      []CreateLine{{ItemCode: "DRILL-HD", Quantity: 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusBorrowed, req.Status)

	res, err := m.Apply(ActionInput{
		Action:    ActionReturn,
		RequestID: req.ID,
		Actor:     storeman,
		Returns: []ReturnLine{{
			LineID:    req.Lines[0].ID,
			Condition: models.ConditionDamaged,
			Remarks:   "chuck cracked",
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusReturned, res.NewStatus)

	// Damaged stock never comes back on hand.
	got := reloadAsset(t, db, asset.ID)
	assert.Equal(t, 3, got.QuantityOnHand)

	var line models.RequestLine
	require.NoError(t, db.First(&line, "id = ?", req.Lines[0].ID).Error)
	assert.Equal(t, 2, line.QuantityReturned)
	assert.Equal(t, models.ConditionDamaged, line.ReturnCondition)
	assert.Equal(t, "chuck cracked", line.ReturnRemarks)

	var incident models.Incident
	require.NoError(t, db.First(&incident, "request_id = ?", req.ID).Error)
	assert.Equal(t, models.IncidentDamaged, incident.Type)
	assert.Equal(t, models.IncidentOpen, incident.Status)
	assert.Equal(t, asset.ID, incident.AssetID)
}

func TestGoodReturnRestoresStock(t *testing.T) {
	db := newTestDB(t)
	project := seedProject(t, db, "SITE-A")
	category := seedCategory(t, db, "TOOL", false)
	asset := seedAsset(t, db, category, project, "LADDER-6M", 4, false)

	m := NewMachine(db, nil)
	req, err := m.CreateRequest(CreateInput{
		EntityType: models.EntityBorrowedTool,
		ProjectID:  int64(project.ID),
		Actor:      maker,
		Lines:      []CreateLine{{ItemCode: "LADDER-6M", Quantity: 3}},
	})
	require.NoError(t, err)

	_, err = m.Apply(ActionInput{Action: ActionReturn, RequestID: req.ID, Actor: storeman})
	require.NoError(t, err)

	got := reloadAsset(t, db, asset.ID)
	assert.Equal(t, 4, got.QuantityOnHand)
	assert.Equal(t, 0, got.QuantityReserved)

	var incidents int64
	require.NoError(t, db.Model(&models.Incident{}).Count(&incidents).Error)
	assert.Zero(t, incidents)
}

func TestInvalidTransitionLeavesNoTrace(t *testing.T) {
	db := newTestDB(t)
	project := seedProject(t, db, "SITE-A")
	category := seedCategory(t, db, "SURV", true)
	asset := seedAsset(t, db, category, project, "TOTAL-STATION", 2, false)

	m := NewMachine(db, nil)
	req, err := m.CreateRequest(CreateInput{
		EntityType: models.EntityRequest,
		ProjectID:  int64(project.ID),
		Actor:      maker,
		Lines:      []CreateLine{{ItemCode: "TOTAL-STATION", Quantity: 1}},
	})
	require.NoError(t, err)

	auditBefore := countAuditEvents(t, db, req.ID)
	ledgerBefore := countLedgerEntries(t, db, asset.ID)

	// Approve cannot skip verification.
	res, err := m.Apply(ActionInput{Action: ActionApprove, RequestID: req.ID, Actor: director})
	require.Error(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, KindInvalidTransition, res.ErrorKind)

	var reloaded models.WorkflowRequest
	require.NoError(t, db.First(&reloaded, "id = ?", req.ID).Error)
	assert.Equal(t, models.StatusPendingVerification, reloaded.Status)
	assert.Equal(t, auditBefore, countAuditEvents(t, db, req.ID))
	assert.Equal(t, ledgerBefore, countLedgerEntries(t, db, asset.ID))
}

func TestRepeatedReleaseAnswersAlreadyProcessed(t *testing.T) {
	db := newTestDB(t)
	project := seedProject(t, db, "SITE-A")
	category := seedCategory(t, db, "HEQP", true)
	asset := seedAsset(t, db, category, project, "COMPACTOR", 2, false)

	m := NewMachine(db, nil)
	req, err := m.CreateRequest(CreateInput{
		EntityType: models.EntityRequest,
		ProjectID:  int64(project.ID),
		Actor:      maker,
		Lines:      []CreateLine{{ItemCode: "COMPACTOR", Quantity: 1}},
	})
	require.NoError(t, err)

	_, err = m.Apply(ActionInput{Action: ActionVerify, RequestID: req.ID, Actor: manager})
	require.NoError(t, err)
	_, err = m.Apply(ActionInput{Action: ActionApprove, RequestID: req.ID, Actor: director})
	require.NoError(t, err)
	_, err = m.Apply(ActionInput{Action: ActionRelease, RequestID: req.ID, Actor: storeman})
	require.NoError(t, err)

	ledgerBefore := countLedgerEntries(t, db, asset.ID)

	res, err := m.Apply(ActionInput{Action: ActionRelease, RequestID: req.ID, Actor: storeman})
	require.Error(t, err)
	assert.Equal(t, KindAlreadyProcessed, res.ErrorKind)

	got := reloadAsset(t, db, asset.ID)
	assert.Equal(t, 1, got.QuantityOnHand)
	assert.Equal(t, ledgerBefore, countLedgerEntries(t, db, asset.ID))
}

func TestInitiatorCancelBeforeRelease(t *testing.T) {
	db := newTestDB(t)
	project := seedProject(t, db, "SITE-A")
	category := seedCategory(t, db, "SURV", true)
	asset := seedAsset(t, db, category, project, "LEVEL-AUTO", 2, false)

	m := NewMachine(db, nil)
	req, err := m.CreateRequest(CreateInput{
		EntityType: models.EntityRequest,
		ProjectID:  int64(project.ID),
		Actor:      maker,
		Lines:      []CreateLine{{ItemCode: "LEVEL-AUTO", Quantity: 2}},
	})
	require.NoError(t, err)

	got := reloadAsset(t, db, asset.ID)
	assert.Equal(t, 2, got.QuantityReserved)

	res, err := m.Apply(ActionInput{Action: ActionCancel, RequestID: req.ID, Actor: maker})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, res.NewStatus)

	got = reloadAsset(t, db, asset.ID)
	assert.Equal(t, 2, got.QuantityOnHand)
	assert.Equal(t, 0, got.QuantityReserved)
}

func TestSupervisorCancelAfterReleaseRestoresStock(t *testing.T) {
	db := newTestDB(t)
	project := seedProject(t, db, "SITE-A")
	category := seedCategory(t, db, "TOOL", false)
	asset := seedAsset(t, db, category, project, "GRINDER", 6, false)

	m := NewMachine(db, nil)
	req, err := m.CreateRequest(CreateInput{
		EntityType: models.EntityBorrowedTool,
		ProjectID:  int64(project.ID),
		Actor:      maker,
		Lines:      []CreateLine{{ItemCode: "GRINDER", Quantity: 4}},
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusBorrowed, req.Status)

	res, err := m.Apply(ActionInput{Action: ActionCancel, RequestID: req.ID, Actor: boss, Notes: "wrong site"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, res.NewStatus)

	got := reloadAsset(t, db, asset.ID)
	assert.Equal(t, 6, got.QuantityOnHand)
	assert.Equal(t, 0, got.QuantityReserved)
}

func TestTransferReceiveCreditsDestination(t *testing.T) {
	db := newTestDB(t)
	source := seedProject(t, db, "SITE-A")
	destination := seedProject(t, db, "SITE-B")
	category := seedCategory(t, db, "TOOL", false)
	asset := seedAsset(t, db, category, source, "SCAFFOLD-SET", 10, false)

	m := NewMachine(db, nil)
	req, err := m.CreateRequest(CreateInput{
		EntityType:           models.EntityTransfer,
		ProjectID:            int64(source.ID),
		DestinationProjectID: int64(destination.ID),
		Actor:                maker,
		Lines:                []CreateLine{{ItemCode: "SCAFFOLD-SET", Quantity: 4}},
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusInTransit, req.Status)

	res, err := m.Apply(ActionInput{Action: ActionReceive, RequestID: req.ID, Actor: storeman})
	require.NoError(t, err)
	assert.Equal(t, models.StatusReceived, res.NewStatus)

	got := reloadAsset(t, db, asset.ID)
	assert.Equal(t, 6, got.QuantityOnHand)

	var dest models.Asset
	require.NoError(t, db.First(&dest, "item_code = ? AND project_id = ?", "SCAFFOLD-SET", destination.ID).Error)
	assert.Equal(t, 4, dest.QuantityOnHand)
	assert.Equal(t, asset.CategoryID, dest.CategoryID)

	res, err = m.Apply(ActionInput{Action: ActionComplete, RequestID: req.ID, Actor: storeman})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, res.NewStatus)
}

func TestCancelAfterReceiveIsRejected(t *testing.T) {
	db := newTestDB(t)
	source := seedProject(t, db, "SITE-A")
	destination := seedProject(t, db, "SITE-B")
	category := seedCategory(t, db, "TOOL", false)
	asset := seedAsset(t, db, category, source, "FORMWORK-SET", 10, false)

	m := NewMachine(db, nil)
	req, err := m.CreateRequest(CreateInput{
		EntityType:           models.EntityTransfer,
		ProjectID:            int64(source.ID),
		DestinationProjectID: int64(destination.ID),
		Actor:                maker,
		Lines:                []CreateLine{{ItemCode: "FORMWORK-SET", Quantity: 4}},
	})
	require.NoError(t, err)

	_, err = m.Apply(ActionInput{Action: ActionReceive, RequestID: req.ID, Actor: storeman})
	require.NoError(t, err)

	res, err := m.Apply(ActionInput{Action: ActionCancel, RequestID: req.ID, Actor: boss})
	require.Error(t, err)
	assert.Equal(t, KindInvalidTransition, res.ErrorKind)

	// The stock stays at the destination; across both projects nothing
	// is created or destroyed.
	src := reloadAsset(t, db, asset.ID)
	var dest models.Asset
	require.NoError(t, db.First(&dest, "item_code = ? AND project_id = ?", "FORMWORK-SET", destination.ID).Error)
	assert.Equal(t, 6, src.QuantityOnHand)
	assert.Equal(t, 4, dest.QuantityOnHand)
	assert.Equal(t, 10, src.QuantityOnHand+dest.QuantityOnHand)

	var reloaded models.WorkflowRequest
	require.NoError(t, db.First(&reloaded, "id = ?", req.ID).Error)
	assert.Equal(t, models.StatusReceived, reloaded.Status)
}

func TestCancelInTransitRestoresSource(t *testing.T) {
	db := newTestDB(t)
	source := seedProject(t, db, "SITE-A")
	destination := seedProject(t, db, "SITE-B")
	category := seedCategory(t, db, "TOOL", false)
	asset := seedAsset(t, db, category, source, "SHORING-PROP", 10, false)

	m := NewMachine(db, nil)
	req, err := m.CreateRequest(CreateInput{
		EntityType:           models.EntityTransfer,
		ProjectID:            int64(source.ID),
		DestinationProjectID: int64(destination.ID),
		Actor:                maker,
		Lines:                []CreateLine{{ItemCode: "SHORING-PROP", Quantity: 4}},
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusInTransit, req.Status)

	res, err := m.Apply(ActionInput{Action: ActionCancel, RequestID: req.ID, Actor: boss})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, res.NewStatus)

	src := reloadAsset(t, db, asset.ID)
	assert.Equal(t, 10, src.QuantityOnHand)

	// The destination row never came into being.
	var destRows int64
	require.NoError(t, db.Model(&models.Asset{}).
		Where("item_code = ? AND project_id = ?", "SHORING-PROP", destination.ID).
		Count(&destRows).Error)
	assert.Zero(t, destRows)
}

func TestDirectorDeclinesApprovedRequest(t *testing.T) {
	db := newTestDB(t)
	project := seedProject(t, db, "SITE-A")
	category := seedCategory(t, db, "HEQP", true)
	asset := seedAsset(t, db, category, project, "CRANE-HOIST", 2, false)

	m := NewMachine(db, nil)
	req, err := m.CreateRequest(CreateInput{
		EntityType: models.EntityRequest,
		ProjectID:  int64(project.ID),
		Actor:      maker,
		Lines:      []CreateLine{{ItemCode: "CRANE-HOIST", Quantity: 1}},
	})
	require.NoError(t, err)

	_, err = m.Apply(ActionInput{Action: ActionVerify, RequestID: req.ID, Actor: manager})
	require.NoError(t, err)
	_, err = m.Apply(ActionInput{Action: ActionApprove, RequestID: req.ID, Actor: director})
	require.NoError(t, err)

	res, err := m.Apply(ActionInput{Action: ActionDecline, RequestID: req.ID, Actor: director, Notes: "budget pulled"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusDeclined, res.NewStatus)

	got := reloadAsset(t, db, asset.ID)
	assert.Equal(t, 2, got.QuantityOnHand)
	assert.Equal(t, 0, got.QuantityReserved)
}

func TestTransferNeedsDistinctDestination(t *testing.T) {
	db := newTestDB(t)
	project := seedProject(t, db, "SITE-A")
	category := seedCategory(t, db, "TOOL", false)
	seedAsset(t, db, category, project, "PUMP", 5, false)

	m := NewMachine(db, nil)
	_, err := m.CreateRequest(CreateInput{
		EntityType:           models.EntityTransfer,
		ProjectID:            int64(project.ID),
		DestinationProjectID: int64(project.ID),
		Actor:                maker,
		Lines:                []CreateLine{{ItemCode: "PUMP", Quantity: 1}},
	})
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestWithdrawalRejectsNonConsumable(t *testing.T) {
	db := newTestDB(t)
	project := seedProject(t, db, "SITE-A")
	category := seedCategory(t, db, "TOOL", false)
	seedAsset(t, db, category, project, "HAMMER", 5, false)

	m := NewMachine(db, nil)
	_, err := m.CreateRequest(CreateInput{
		EntityType: models.EntityWithdrawal,
		ProjectID:  int64(project.ID),
		Actor:      maker,
		Lines:      []CreateLine{{ItemCode: "HAMMER", Quantity: 1}},
	})
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestExpectedReturnDateMarksOverdue(t *testing.T) {
	db := newTestDB(t)
	project := seedProject(t, db, "SITE-A")
	category := seedCategory(t, db, "TOOL", false)
	seedAsset(t, db, category, project, "WELDER", 3, false)

	due := time.Now().Add(-48 * time.Hour)
	m := NewMachine(db, nil)
	req, err := m.CreateRequest(CreateInput{
		EntityType:         models.EntityBorrowedTool,
		ProjectID:          int64(project.ID),
		Actor:              maker,
		ExpectedReturnDate: &due,
		Lines:              []CreateLine{{ItemCode: "WELDER", Quantity: 1}},
	})
	require.NoError(t, err)

	assert.True(t, req.IsOverdue(time.Now()))

	// Overdue never blocks the return itself.
	_, err = m.Apply(ActionInput{Action: ActionReturn, RequestID: req.ID, Actor: storeman})
	require.NoError(t, err)
}

func TestRequestNumbersSequencePerEntity(t *testing.T) {
	db := newTestDB(t)
	project := seedProject(t, db, "SITE-A")
	category := seedCategory(t, db, "CONS", false)
	seedAsset(t, db, category, project, "REBAR-12", 100, true)

	m := NewMachine(db, nil)
	var numbers []string
	for i := 0; i < 3; i++ {
		req, err := m.CreateRequest(CreateInput{
			EntityType: models.EntityWithdrawal,
			ProjectID:  int64(project.ID),
			Actor:      maker,
			Lines:      []CreateLine{{ItemCode: "REBAR-12", Quantity: 1}},
		})
		require.NoError(t, err)
		numbers = append(numbers, req.RequestNo)
	}

	datePart := time.Now().Format("060102")
	for i, no := range numbers {
		assert.Equal(t, fmt.Sprintf("WD%s%04d", datePart, i+1), no)
	}
}
