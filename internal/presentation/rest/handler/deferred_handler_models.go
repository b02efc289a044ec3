package handler

// DeferredOption 分割払いマトリクスの1エントリ
// @Description 分割払いマトリクスの1エントリ
type DeferredOption struct {
	Type          string   `json:"type" example:"all"`
	Months        []string `json:"months"`
	MonthsOfGrace []string `json:"monthsOfGrace"`
}

// DeferredOptionsResponse 分割払いオプションレスポンス
// @Description 分割払いオプションレスポンス
type DeferredOptionsResponse struct {
	Bin     string           `json:"bin" example:"411111"`
	Options []DeferredOption `json:"options"`
}
