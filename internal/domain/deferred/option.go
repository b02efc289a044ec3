package deferred

// Option 銀行またはBIN単位の分割払いルール
// 参照データであり集約のみで変更されない
type Option struct {
	DeferredType  string   `json:"deferredType"`
	Banks         []string `json:"banks"`
	Bins          []string `json:"bins"`
	Months        []string `json:"months"`
	MonthsOfGrace []string `json:"monthsOfGrace"`
}

// MatrixEntry マージ済み分割払いマトリクスの1エントリ
type MatrixEntry struct {
	Type          string   `json:"type"`
	Months        []string `json:"months"`
	MonthsOfGrace []string `json:"monthsOfGrace"`
}

// カードタイプ
const (
	CardTypeCredit = "credit"
	CardTypeDebit  = "debit"
)

// DeferredTypeAll 全銀行共通の分割タイプコード
const DeferredTypeAll = "all"
