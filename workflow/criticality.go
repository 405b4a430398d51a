package workflow

import (
	"asset-app/models"

	"github.com/shopspring/decimal"
)

// Classifier is the single criticality rule for every entity type: a
// line is critical when its asset's category is flagged critical or
// the unit cost reaches the configured threshold. A request takes the
// highest tier over its lines.
type Classifier struct {
	CostThreshold decimal.Decimal
}

func NewClassifier(costThreshold decimal.Decimal) Classifier {
	return Classifier{CostThreshold: costThreshold}
}

func (c Classifier) ClassifyAsset(asset *models.Asset) string {
	if asset.Category.IsCritical {
		return models.CriticalityCritical
	}
	if asset.UnitCost.GreaterThanOrEqual(c.CostThreshold) && c.CostThreshold.IsPositive() {
		return models.CriticalityCritical
	}
	return models.CriticalityBasic
}

func (c Classifier) ClassifyRequest(assets []*models.Asset) string {
	for _, a := range assets {
		if c.ClassifyAsset(a) == models.CriticalityCritical {
			return models.CriticalityCritical
		}
	}
	return models.CriticalityBasic
}
