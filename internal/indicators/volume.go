package indicators

import (
	"github.com/ridopark/ta-signal-bot/internal/models"
)

// VolumeIndicators holds the rolling volume mean, VWAP, OBV and
// Accumulation/Distribution.
type VolumeIndicators struct {
	VolumeSMA   float64
	VWAP        float64
	OBV         float64
	VolumeRatio float64
	AccDist     float64
}

// VolumeSMA calculates the rolling Volume Simple Moving Average.
func VolumeSMA(candles []*models.Candle, period int) float64 {
	if len(candles) < period {
		return 0
	}
	sum := 0.0
	for i := len(candles) - period; i < len(candles); i++ {
		sum += candles[i].Volume
	}
	return sum / float64(period)
}

// VWAP calculates the Volume Weighted Average Price over the whole window.
func VWAP(candles []*models.Candle) float64 {
	if len(candles) == 0 {
		return 0
	}
	var totalVolume, totalPriceVolume float64
	for _, c := range candles {
		typicalPrice := (c.High + c.Low + c.Close) / 3.0
		totalPriceVolume += typicalPrice * c.Volume
		totalVolume += c.Volume
	}
	if totalVolume == 0 {
		return 0
	}
	return totalPriceVolume / totalVolume
}

// OBV calculates On-Balance Volume.
func OBV(candles []*models.Candle) float64 {
	if len(candles) < 2 {
		return 0
	}
	obv := candles[0].Volume
	for i := 1; i < len(candles); i++ {
		if candles[i].Close > candles[i-1].Close {
			obv += candles[i].Volume
		} else if candles[i].Close < candles[i-1].Close {
			obv -= candles[i].Volume
		}
	}
	return obv
}

// AccumulationDistribution calculates the Accumulation/Distribution Line.
func AccumulationDistribution(candles []*models.Candle) float64 {
	if len(candles) == 0 {
		return 0
	}
	var adLine float64
	for _, c := range candles {
		if c.High == c.Low {
			continue
		}
		mfm := ((c.Close - c.Low) - (c.High - c.Close)) / (c.High - c.Low)
		mfv := mfm * c.Volume
		adLine += mfv
	}
	return adLine
}

// CalculateVolumeIndicators computes the full volume family.
func CalculateVolumeIndicators(candles []*models.Candle) *VolumeIndicators {
	if len(candles) == 0 {
		return &VolumeIndicators{}
	}
	ind := &VolumeIndicators{
		VolumeSMA: VolumeSMA(candles, 20),
		VWAP:      VWAP(candles),
		OBV:       OBV(candles),
		AccDist:   AccumulationDistribution(candles),
	}
	if ind.VolumeSMA > 0 {
		currentVolume := candles[len(candles)-1].Volume
		ind.VolumeRatio = currentVolume / ind.VolumeSMA
	}
	return ind
}

// VolumeSignal returns a coarse volume signal.
func (v *VolumeIndicators) VolumeSignal() string {
	if v.VolumeRatio > 1.5 {
		return "high_volume"
	} else if v.VolumeRatio < 0.5 {
		return "low_volume"
	}
	return "normal_volume"
}

// IsAboveVWAP checks if currentPrice is above VWAP.
func (v *VolumeIndicators) IsAboveVWAP(currentPrice float64) bool {
	return v.VWAP > 0 && currentPrice > v.VWAP
}

// VolumeConfirmation checks if volume confirms the price movement.
func (v *VolumeIndicators) VolumeConfirmation() bool {
	return v.VolumeRatio > 1.2 && v.OBV > 0
}

// AccumulationSignal returns the accumulation/distribution signal.
func (v *VolumeIndicators) AccumulationSignal() string {
	if v.AccDist > 0 {
		return "accumulation"
	} else if v.AccDist < 0 {
		return "distribution"
	}
	return "neutral"
}
