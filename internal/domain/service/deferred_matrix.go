package service

import (
	"sort"
	"strconv"

	"card-gateway/internal/domain/deferred"
)

// 分割払いの正準マトリクスを固定で返す国
const (
	countryColombia = "Colombia"
	countryChile    = "Chile"
	countryMexico   = "Mexico"
)

// DeferredMatrixBuilder 銀行・国別の分割払いルールを正準マトリクスへマージするドメインサービス
type DeferredMatrixBuilder struct{}

// NewDeferredMatrixBuilder 新しいDeferredMatrixBuilderを作成
func NewDeferredMatrixBuilder() *DeferredMatrixBuilder {
	return &DeferredMatrixBuilder{}
}

// Build BINの銀行・カードタイプとマーチャントのルールセットからマトリクスを構築する
// ルール未設定は空のマトリクスでありエラーではない
func (b *DeferredMatrixBuilder) Build(
	country string,
	bank string,
	bin string,
	cardType string,
	options []deferred.Option,
) []deferred.MatrixEntry {
	switch country {
	case countryColombia, countryChile:
		return []deferred.MatrixEntry{fixedMatrixEntry()}
	case countryMexico:
		return b.buildMexico(bin, cardType, options)
	default:
		return b.buildByBank(bank, bin, cardType, options)
	}
}

// fixedMatrixEntry コロンビア・チリ向けの固定マトリクス（2〜48ヶ月、猶予なし）
func fixedMatrixEntry() deferred.MatrixEntry {
	months := make([]string, 0, 47)
	for m := 2; m <= 48; m++ {
		months = append(months, strconv.Itoa(m))
	}
	return deferred.MatrixEntry{
		Type:          deferred.DeferredTypeAll,
		Months:        months,
		MonthsOfGrace: []string{},
	}
}

// buildMexico メキシコはクレジットカードのBIN一致ルールのみ、タイプは常にall
func (b *DeferredMatrixBuilder) buildMexico(bin string, cardType string, options []deferred.Option) []deferred.MatrixEntry {
	if cardType != deferred.CardTypeCredit {
		return []deferred.MatrixEntry{}
	}

	monthSet := make(map[string]struct{})
	for _, opt := range options {
		if !contains(opt.Bins, bin) {
			continue
		}
		for _, m := range opt.Months {
			monthSet[m] = struct{}{}
		}
	}
	if len(monthSet) == 0 {
		return []deferred.MatrixEntry{}
	}
	return []deferred.MatrixEntry{{
		Type:          deferred.DeferredTypeAll,
		Months:        sortedNumeric(monthSet),
		MonthsOfGrace: []string{},
	}}
}

// buildByBank 銀行名またはBINの一致でルールを絞り、分割タイプ別に和集合でマージする
func (b *DeferredMatrixBuilder) buildByBank(bank string, bin string, cardType string, options []deferred.Option) []deferred.MatrixEntry {
	// デビットカードには分割払いを提示しない
	if cardType == deferred.CardTypeDebit {
		return []deferred.MatrixEntry{}
	}

	type merged struct {
		months map[string]struct{}
		grace  map[string]struct{}
	}
	byType := make(map[string]*merged)
	typeOrder := make([]string, 0)

	for _, opt := range options {
		if !contains(opt.Banks, bank) && !contains(opt.Bins, bin) {
			continue
		}
		m, ok := byType[opt.DeferredType]
		if !ok {
			m = &merged{months: make(map[string]struct{}), grace: make(map[string]struct{})}
			byType[opt.DeferredType] = m
			typeOrder = append(typeOrder, opt.DeferredType)
		}
		for _, v := range opt.Months {
			m.months[v] = struct{}{}
		}
		for _, v := range opt.MonthsOfGrace {
			m.grace[v] = struct{}{}
		}
	}

	sort.Strings(typeOrder)
	entries := make([]deferred.MatrixEntry, 0, len(typeOrder))
	for _, dt := range typeOrder {
		m := byType[dt]
		entries = append(entries, deferred.MatrixEntry{
			Type:          dt,
			Months:        sortedNumeric(m.months),
			MonthsOfGrace: sortedNumeric(m.grace),
		})
	}
	return entries
}

// sortedNumeric 集合を数値順にソートしたスライスへ変換する
// "10"は"9"の後に並ぶ必要があるため辞書順ではなく数値で比較する
func sortedNumeric(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		a, errA := strconv.Atoi(out[i])
		b, errB := strconv.Atoi(out[j])
		if errA != nil || errB != nil {
			return out[i] < out[j]
		}
		return a < b
	})
	return out
}

// contains 文字列スライスにvalueが含まれるかどうかを返す
func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
