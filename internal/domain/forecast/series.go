package forecast

// olsSlope fits an ordinary least squares line over the series with
// the index as x and returns its slope. Series shorter than two points
// have no trend.
func olsSlope(series []float64) float64 {
	n := float64(len(series))
	if n < 2 {
		return 0
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, y := range series {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}

// average returns the arithmetic mean of the series, 0 when empty.
func average(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}
	var sum float64
	for _, v := range series {
		sum += v
	}
	return sum / float64(len(series))
}

// movingAverage computes the trailing moving average with the given
// window. Positions before the window fills are nil.
func movingAverage(series []float64, window int) []*float64 {
	out := make([]*float64, len(series))
	if window < 1 {
		return out
	}
	var sum float64
	for i, v := range series {
		sum += v
		if i >= window {
			sum -= series[i-window]
		}
		if i >= window-1 {
			avg := sum / float64(window)
			out[i] = &avg
		}
	}
	return out
}
