package pricing

// MinDenominator is the smallest share of the sale price that must remain
// after processor, advertising and margin before a price can be solved.
const MinDenominator = 0.01

// MaxBurden is the combined fee and margin fraction at which pricing becomes impossible.
const MaxBurden = 1 - MinDenominator

// Solution is the outcome of back-solving a sale price.
type Solution struct {
	Price    TargetAmount `json:"price"`
	Solvable bool         `json:"solvable"`
}

// Solve finds the sale price at which, after processor and advertising fees,
// net profit is targetMargin of the price:
//
//	price = (hardCost + fixed) / (1 - pct - ad - margin)
//
// When the denominator is at or below MinDenominator the result is
// unsolvable and carries a zero price.
func Solve(hardCost TargetAmount, fm FeeModel, adFraction, targetMargin float64) Solution {
	denom := 1 - fm.ProcessorPct - adFraction - targetMargin
	if denom <= MinDenominator {
		return Solution{}
	}
	return Solution{
		Price:    (hardCost + fm.ProcessorFixed) / TargetAmount(denom),
		Solvable: true,
	}
}
