// Package fraud pontua transferências propostas de 0 a 100.
// Scorers são puros: todo sinal externo chega já coletado em TransferContext.
package fraud

// TransferContext é a entrada de um Scorer
type TransferContext struct {
	FromOwnerID string
	ToOwnerID   string
	AmountCents int64

	// sinais coletados fora do scorer
	DeviceMismatch          bool
	RecentTransfers         int // transferências do remetente na janela de velocidade, incluindo esta
	SuspiciousActivityCount int
}

type Scorer interface {
	Score(tc TransferContext) int
}

// ScorerFunc adapta uma função comum a Scorer
type ScorerFunc func(tc TransferContext) int

func (f ScorerFunc) Score(tc TransferContext) int { return f(tc) }

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// AmountScorer é a regra base: pontos por valor alto e muito alto
type AmountScorer struct {
	LargeCents     int64
	LargePoints    int
	VeryLargeCents int64
	VeryLargePts   int
}

// DefaultAmountScorer: +20 acima de 1000, +30 adicionais acima de 5000 (em unidades)
func DefaultAmountScorer() AmountScorer {
	return AmountScorer{LargeCents: 100_000, LargePoints: 20, VeryLargeCents: 500_000, VeryLargePts: 30}
}

func (s AmountScorer) Score(tc TransferContext) int {
	score := 0
	if tc.AmountCents > s.LargeCents {
		score += s.LargePoints
	}
	if tc.AmountCents > s.VeryLargeCents {
		score += s.VeryLargePts
	}
	return clamp(score)
}

// DeviceScorer pontua quando o dispositivo da requisição difere do registrado na carteira
type DeviceScorer struct {
	Points int
}

func (s DeviceScorer) Score(tc TransferContext) int {
	if tc.DeviceMismatch {
		return clamp(s.Points)
	}
	return 0
}

// VelocityScorer pontua cada transferência acima da cota livre na janela
type VelocityScorer struct {
	FreeTransfers int
	Points        int
}

func (s VelocityScorer) Score(tc TransferContext) int {
	if s.FreeTransfers <= 0 || tc.RecentTransfers <= s.FreeTransfers {
		return 0
	}
	return clamp((tc.RecentTransfers - s.FreeTransfers) * s.Points)
}

// Composite soma os scorers e limita a [0,100]
type Composite []Scorer

func (c Composite) Score(tc TransferContext) int {
	total := 0
	for _, s := range c {
		total += s.Score(tc)
	}
	return clamp(total)
}
