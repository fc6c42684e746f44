package risk

// DrawdownPercent 计算自资金峰值以来的回撤百分比。
// 峰值非正时视为无回撤,资金高于峰值时同样返回0,读数永不为负。
func DrawdownPercent(peak, current float64) float64 {
	if peak <= 0 {
		return 0
	}
	dd := (peak - current) / peak * 100
	if dd < 0 {
		return 0
	}
	return dd
}

// VolatilityPercent 计算价格窗口内的极差百分比 (max-min)/min*100。
// 样本不足两个时无法度量波动,返回0。
func VolatilityPercent(prices []float64) float64 {
	if len(prices) < 2 {
		return 0
	}

	min, max := prices[0], prices[0]
	for _, p := range prices[1:] {
		if p < min {
			min = p
		}
		if p > max {
			max = p
		}
	}
	if min <= 0 {
		return 0
	}
	return (max - min) / min * 100
}
