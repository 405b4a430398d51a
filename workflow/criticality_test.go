package workflow

import (
	"testing"

	"asset-app/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestClassifierCategoryFlag(t *testing.T) {
	c := NewClassifier(decimal.NewFromInt(50000))

	flagged := &models.Asset{
		UnitCost: decimal.NewFromInt(100),
		Category: models.Category{IsCritical: true},
	}
	plain := &models.Asset{
		UnitCost: decimal.NewFromInt(100),
		Category: models.Category{IsCritical: false},
	}

	assert.Equal(t, models.CriticalityCritical, c.ClassifyAsset(flagged))
	assert.Equal(t, models.CriticalityBasic, c.ClassifyAsset(plain))
}

func TestClassifierCostThreshold(t *testing.T) {
	c := NewClassifier(decimal.NewFromInt(50000))

	assert.Equal(t, models.CriticalityBasic, c.ClassifyAsset(&models.Asset{UnitCost: decimal.NewFromInt(49999)}))
	assert.Equal(t, models.CriticalityCritical, c.ClassifyAsset(&models.Asset{UnitCost: decimal.NewFromInt(50000)}))

	// A zero threshold disables the cost rule entirely.
	off := NewClassifier(decimal.Zero)
	assert.Equal(t, models.CriticalityBasic, off.ClassifyAsset(&models.Asset{UnitCost: decimal.NewFromInt(1000000)}))
}

func TestClassifierRequestTakesHighestTier(t *testing.T) {
	c := NewClassifier(decimal.NewFromInt(50000))

	assets := []*models.Asset{
		{UnitCost: decimal.NewFromInt(10)},
		{UnitCost: decimal.NewFromInt(20)},
	}
	assert.Equal(t, models.CriticalityBasic, c.ClassifyRequest(assets))

	assets = append(assets, &models.Asset{UnitCost: decimal.NewFromInt(60000)})
	assert.Equal(t, models.CriticalityCritical, c.ClassifyRequest(assets))
}
