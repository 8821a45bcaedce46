package probability

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// tailIndex is ceil((1-confidence)·n) - 1, with a small guard so that
// products like (1-0.95)·100 = 5.000000000000004 do not round up.
func tailIndex(confidence float64, n int) int {
	return int(math.Ceil((1-confidence)*float64(n)-1e-9)) - 1
}

// lossesFrom negates each scenario P&L and sorts the result ascending.
func lossesFrom(pnl []float64) []float64 {
	losses := make([]float64, len(pnl))
	for i, v := range pnl {
		losses[i] = -v
	}
	sort.Float64s(losses)
	return losses
}

// CalculateVaR is the empirical value at risk over ascending-sorted losses:
// losses[ceil((1-c)·N) - 1], or 0 when that index is negative.
//
// The index is computed with the 1e-9 guard of tailIndex, so c=0.95 on 100
// scenarios selects index 4. A literal IEEE evaluation of the same formula
// gives 5; results differ from such implementations on grids where (1-c)·N
// is a whole number.
func CalculateVaR(losses []float64, confidence float64) float64 {
	idx := tailIndex(confidence, len(losses))
	if idx < 0 || len(losses) == 0 {
		return 0
	}
	return losses[idx]
}

// CalculateExpectedShortfall averages losses[0..idx] using the same index
// convention as CalculateVaR.
func CalculateExpectedShortfall(losses []float64, confidence float64) float64 {
	if len(losses) == 0 {
		return 0
	}
	idx := tailIndex(confidence, len(losses))
	if idx < 0 {
		idx = 0
	}
	return stat.Mean(losses[:idx+1], nil)
}

// CalculateMaxLoss is the largest loss over the grid, 0 if no scenario loses
// money.
func CalculateMaxLoss(losses []float64) float64 {
	if len(losses) == 0 {
		return 0
	}
	return math.Max(0, losses[len(losses)-1])
}

// CalculateProbabilityOfProfit is the fraction of scenarios with pnl > 0.
func CalculateProbabilityOfProfit(pnl []float64) float64 {
	if len(pnl) == 0 {
		return 0
	}
	wins := 0
	for _, v := range pnl {
		if v > 0 {
			wins++
		}
	}
	return float64(wins) / float64(len(pnl))
}
