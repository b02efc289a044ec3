package amount

import "strconv"

// WireAmount プロセッサーのワイヤ表現（文字列エンコードされた2桁小数）
// Amountから一方向に導出され、送信後は変更されない
type WireAmount struct {
	IVA          string    `json:"IVA"`
	SubtotalIVA  string    `json:"Subtotal_IVA"`
	SubtotalIVA0 string    `json:"Subtotal_IVA0"`
	ICE          string    `json:"ICE,omitempty"`
	TotalAmount  string    `json:"Total_amount"`
	Taxes        []WireTax `json:"Tax_amounts,omitempty"`
}

// WireTax ワイヤ表現上の追加税エントリ
type WireTax struct {
	TaxCode   int    `json:"tax_code"`
	TaxLabel  string `json:"tax_label"`
	TaxAmount string `json:"tax_amount"`
}

// FormatWire 金額をワイヤ表現の文字列に変換する
func FormatWire(v float64) string {
	return strconv.FormatFloat(Round2(v), 'f', 2, 64)
}
