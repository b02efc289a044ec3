package amount

import "math"

// Amount 取引金額の税分解を表す値オブジェクト
// Total()がIVA・小計・ICE・追加税の合計と一致することが不変条件
type Amount struct {
	Currency     string
	IVA          float64
	SubtotalIVA  float64
	SubtotalIVA0 float64
	ICE          float64
	ExtraTaxes   map[string]float64
}

// Total 金額の合計を返す
func (a *Amount) Total() float64 {
	total := a.IVA + a.SubtotalIVA + a.SubtotalIVA0 + a.ICE
	for _, v := range a.ExtraTaxes {
		total += v
	}
	return Round2(total)
}

// Round2 小数第2位で丸める
// 中間段階での丸めが下流の照合処理の前提になっているため、
// 計算の各ステップで必ず適用すること
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
