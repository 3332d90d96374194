package indicators

import (
	"math"

	"github.com/ridopark/ta-signal-bot/internal/models"
)

// ADX calculates the Average Directional Index at `period` using Wilder's
// smoothing of directional movement and true range, the conventional
// definition used by every mainstream TA library.
func ADX(candles []*models.Candle, period int) float64 {
	if len(candles) < period*2 {
		return 0
	}

	n := len(candles)
	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	tr := make([]float64, n)

	for i := 1; i < n; i++ {
		upMove := candles[i].High - candles[i-1].High
		downMove := candles[i-1].Low - candles[i].Low

		if upMove > downMove && upMove > 0 {
			plusDM[i] = upMove
		}
		if downMove > upMove && downMove > 0 {
			minusDM[i] = downMove
		}
		tr[i] = TrueRange(candles[i], candles[i-1])
	}

	smooth := func(series []float64, period int) []float64 {
		out := make([]float64, len(series))
		sum := 0.0
		for i := 1; i <= period; i++ {
			sum += series[i]
		}
		out[period] = sum
		for i := period + 1; i < len(series); i++ {
			out[i] = out[i-1] - (out[i-1] / float64(period)) + series[i]
		}
		return out
	}

	smoothedTR := smooth(tr, period)
	smoothedPlusDM := smooth(plusDM, period)
	smoothedMinusDM := smooth(minusDM, period)

	dx := make([]float64, n)
	for i := period; i < n; i++ {
		if smoothedTR[i] == 0 {
			continue
		}
		plusDI := 100 * smoothedPlusDM[i] / smoothedTR[i]
		minusDI := 100 * smoothedMinusDM[i] / smoothedTR[i]
		sum := plusDI + minusDI
		if sum == 0 {
			continue
		}
		dx[i] = 100 * math.Abs(plusDI-minusDI) / sum
	}

	// ADX is Wilder's smoothed average of DX over the trailing period.
	start := period * 2
	if start >= n {
		start = n - 1
	}
	adxSum := 0.0
	count := 0
	for i := period; i < start+1 && i < n; i++ {
		adxSum += dx[i]
		count++
	}
	if count == 0 {
		return 0
	}
	adx := adxSum / float64(count)
	for i := start + 1; i < n; i++ {
		adx = ((adx * float64(period-1)) + dx[i]) / float64(period)
	}
	return adx
}
