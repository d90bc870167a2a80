package domain

// VarianceThresholds configure when a count discrepancy forces a recount
type VarianceThresholds struct {
	QuantityThreshold int     `bson:"quantityThreshold" json:"quantityThreshold"`
	PercentThreshold  float64 `bson:"percentThreshold" json:"percentThreshold"`
	ValueThreshold    int64   `bson:"valueThreshold" json:"valueThreshold"` // cents
	UnitCostCents     int64   `bson:"unitCostCents" json:"unitCostCents"`
}

// VarianceResult is the outcome of comparing a counted quantity to the system quantity
type VarianceResult struct {
	Variance         int     `bson:"variance" json:"variance"`
	VariancePct      float64 `bson:"variancePct" json:"variancePct"`
	VarianceValue    int64   `bson:"varianceValue" json:"varianceValue"` // cents
	ExceedsThreshold bool    `bson:"exceedsThreshold" json:"exceedsThreshold"`
	RecountRequired  bool    `bson:"recountRequired" json:"recountRequired"`
}

// EvaluateVariance compares a physical count against the system quantity.
// Variance is counted minus system. Percent is relative to the system
// quantity, pinned to 100 when the system shows zero but units were found.
// The threshold trips when any of quantity, percent or value exceeds its
// configured limit, and a tripped threshold mandates a recount.
func EvaluateVariance(systemQty, countedQty int, t VarianceThresholds) VarianceResult {
	variance := countedQty - systemQty

	var pct float64
	switch {
	case systemQty > 0:
		pct = absFloat(float64(variance)) / float64(systemQty) * 100
	case countedQty > 0:
		pct = 100
	default:
		pct = 0
	}

	value := int64(variance) * t.UnitCostCents

	exceeds := false
	if t.QuantityThreshold > 0 && absInt(variance) > t.QuantityThreshold {
		exceeds = true
	}
	if t.PercentThreshold > 0 && pct > t.PercentThreshold {
		exceeds = true
	}
	if t.ValueThreshold > 0 && absInt64(value) > t.ValueThreshold {
		exceeds = true
	}

	return VarianceResult{
		Variance:         variance,
		VariancePct:      pct,
		VarianceValue:    value,
		ExceedsThreshold: exceeds,
		RecountRequired:  exceeds,
	}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
