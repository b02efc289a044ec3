package amount

// TaxCode 追加税の税コードとラベルの組
type TaxCode struct {
	Code  int
	Label string
}

// taxCodes 追加税名から税コードへの固定マッピング
// プロセッサーとの取り決めで定まっており、追加時は双方の合意が必要
var taxCodes = map[string]TaxCode{
	"propina":           {Code: 3, Label: "PROPINA"},
	"tasaAeroportuaria": {Code: 4, Label: "TASA_AEROPORTUARIA"},
	"agenciaDeViaje":    {Code: 5, Label: "AGENCIA_DE_VIAJE"},
	"iac":               {Code: 6, Label: "IAC"},
}

// LookupTaxCode 追加税名に対応する税コードを返す
func LookupTaxCode(name string) (TaxCode, bool) {
	tc, ok := taxCodes[name]
	return tc, ok
}
