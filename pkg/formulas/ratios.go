package formulas

// SharpeRatio computes the annualized Sharpe ratio from periodic returns:
// (annualized return - risk-free rate) / annualized volatility.
// riskFreeRate is annual, as a decimal. Returns nil when the volatility
// is exactly zero (constant returns), which leaves the ratio undefined.
func SharpeRatio(returns []float64, riskFreeRate float64, periodsPerYear int) *float64 {
	clean := DropNaN(returns)
	if len(clean) < 2 {
		return nil
	}

	annReturn := AnnualizeReturn(Mean(clean), periodsPerYear)
	annVol := AnnualizeVolatility(StdDev(clean), periodsPerYear)
	if annVol == 0 {
		return nil
	}

	sharpe := (annReturn - riskFreeRate) / annVol
	return &sharpe
}

// SortinoRatio is the downside-deviation variant of the Sharpe ratio.
// Returns nil when there are no downside periods or the downside
// deviation is zero.
func SortinoRatio(returns []float64, riskFreeRate float64, periodsPerYear int) *float64 {
	clean := DropNaN(returns)
	if len(clean) < 2 {
		return nil
	}

	downsideDev, n := DownsideDeviation(clean)
	if n == 0 || downsideDev == 0 {
		return nil
	}

	annReturn := AnnualizeReturn(Mean(clean), periodsPerYear)
	annDownside := AnnualizeVolatility(downsideDev, periodsPerYear)

	sortino := (annReturn - riskFreeRate) / annDownside
	return &sortino
}

// Alpha computes the CAPM residual:
// asset - [rf + beta * (benchmark - rf)].
// All return arguments are annualized decimals.
func Alpha(assetReturn, beta, benchmarkReturn, riskFreeRate float64) float64 {
	return assetReturn - (riskFreeRate + beta*(benchmarkReturn-riskFreeRate))
}
