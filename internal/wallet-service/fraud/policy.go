package fraud

import "github.com/radieske/bingo-wallet/internal/shared/config"

// FromPolicy monta o scorer padrão a partir da configuração da carteira.
// Extensões com peso zero ficam de fora.
func FromPolicy(p config.WalletPolicy) Scorer {
	c := Composite{AmountScorer{
		LargeCents:     p.LargeAmountCents,
		LargePoints:    20,
		VeryLargeCents: p.VeryLargeAmountCents,
		VeryLargePts:   30,
	}}
	if p.DeviceMismatchPoints > 0 {
		c = append(c, DeviceScorer{Points: p.DeviceMismatchPoints})
	}
	if p.VelocityPoints > 0 {
		c = append(c, VelocityScorer{FreeTransfers: p.VelocityFreeTransfers, Points: p.VelocityPoints})
	}
	return c
}
