package service

import (
	"sort"

	"card-gateway/internal/domain/amount"
)

// ICEの固定税率（アフィニティプログラム向けの取り決め）
const iceRate = 0.15

// AmountResolver 通貨・国別の税分解を行うドメインサービス
// 副作用を持たない純粋な計算のみを行う
type AmountResolver struct {
	taxRates             map[string]float64
	affinityProcessorIDs map[string]struct{}
}

// NewAmountResolver 新しいAmountResolverを作成
// taxRatesは通貨コードからIVA税率へのマップ（例: COP -> 0.19）
func NewAmountResolver(taxRates map[string]float64, affinityProcessorIDs []string) *AmountResolver {
	ids := make(map[string]struct{}, len(affinityProcessorIDs))
	for _, id := range affinityProcessorIDs {
		ids[id] = struct{}{}
	}
	return &AmountResolver{
		taxRates:             taxRates,
		affinityProcessorIDs: ids,
	}
}

// Resolve 金額をプロセッサーのワイヤ表現へ解決する
// 呼び出し元が明示したIVAが常に優先される
func (r *AmountResolver) Resolve(a *amount.Amount, processorID string) (*amount.WireAmount, error) {
	resolved := *a

	if _, ok := r.affinityProcessorIDs[processorID]; ok {
		amended, err := r.amendAffinity(&resolved)
		if err != nil {
			return nil, err
		}
		resolved = *amended
	} else if resolved.IVA == 0 && resolved.SubtotalIVA != 0 {
		// IVA未指定の場合はフラットな合計から小計・IVAを逆算する
		rate, ok := r.taxRates[resolved.Currency]
		if !ok {
			return nil, amount.ErrMissingTaxRate
		}
		total := amount.Round2(resolved.SubtotalIVA)
		subtotal := amount.Round2(total / (1 + rate))
		resolved.SubtotalIVA = subtotal
		resolved.IVA = amount.Round2(total - subtotal)
	}

	return r.toWire(&resolved)
}

// amendAffinity アフィニティプログラム向けにICE/IVA/小計へ再配分する
// 浮動小数点の誤差はICE側へ畳み込み、3成分の和が入力合計と一致するようにする
func (r *AmountResolver) amendAffinity(a *amount.Amount) (*amount.Amount, error) {
	rate, ok := r.taxRates[a.Currency]
	if !ok {
		return nil, amount.ErrMissingTaxRate
	}

	total := a.Total()
	base := amount.Round2(total / (1 + rate + iceRate))
	iva := amount.Round2(base * rate)
	ice := amount.Round2(total - base - iva)

	amended := *a
	amended.SubtotalIVA = base
	amended.IVA = iva
	amended.ICE = ice
	amended.SubtotalIVA0 = 0
	amended.ExtraTaxes = nil
	return &amended, nil
}

// toWire 解決済みのAmountをワイヤ表現へ変換する
func (r *AmountResolver) toWire(a *amount.Amount) (*amount.WireAmount, error) {
	wire := &amount.WireAmount{
		IVA:          amount.FormatWire(a.IVA),
		SubtotalIVA:  amount.FormatWire(a.SubtotalIVA),
		SubtotalIVA0: amount.FormatWire(a.SubtotalIVA0),
	}
	if a.ICE != 0 {
		wire.ICE = amount.FormatWire(a.ICE)
	}

	total := amount.Round2(a.IVA + a.SubtotalIVA + a.SubtotalIVA0 + a.ICE)
	names := make([]string, 0, len(a.ExtraTaxes))
	for name := range a.ExtraTaxes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		tc, ok := amount.LookupTaxCode(name)
		if !ok {
			return nil, amount.ErrUnknownTaxName
		}
		wire.Taxes = append(wire.Taxes, amount.WireTax{
			TaxCode:   tc.Code,
			TaxLabel:  tc.Label,
			TaxAmount: amount.FormatWire(a.ExtraTaxes[name]),
		})
		total = amount.Round2(total + a.ExtraTaxes[name])
	}
	wire.TotalAmount = amount.FormatWire(total)
	return wire, nil
}
