package fsrs

import "math"

// algo holds the weight vector plus constants precomputed from it.
type algo struct {
	w      [21]float64
	decay  float64 // -w[20]
	factor float64 // 0.9^(1/decay) - 1
}

func newAlgo(w [21]float64) algo {
	decay := -w[20]
	return algo{
		w:      w,
		decay:  decay,
		factor: math.Pow(0.9, 1.0/decay) - 1.0,
	}
}

// retrievability computes R(t, S) = (1 + FACTOR * t / S) ^ DECAY, the modeled
// probability of recall t days after a review that left stability S.
func (a *algo) retrievability(elapsedDays, stability float64) float64 {
	return math.Pow(1+a.factor*elapsedDays/stability, a.decay)
}

// initStability returns S0(G) for the first review.
func (a *algo) initStability(r Rating) float64 {
	return clampStability(a.w[r-1])
}

// initDifficulty returns D0(G) = w[4] - e^(w[5]*(G-1)) + 1 for the first
// review. The unclamped value is also the mean-reversion target.
func (a *algo) initDifficulty(r Rating, clamp bool) float64 {
	d := a.w[4] - math.Exp(a.w[5]*float64(r-1)) + 1
	if clamp {
		return clampDifficulty(d)
	}
	return d
}

// nextInterval converts stability into a review interval in whole days:
// I(r, S) = round((S / FACTOR) * (r^(1/DECAY) - 1)), clamped to [1, maxIvl].
func (a *algo) nextInterval(stability, desiredRetention float64, maxIvl int) int {
	ivl := stability / a.factor * (math.Pow(desiredRetention, 1.0/a.decay) - 1)
	days := int(math.Round(ivl))
	if days < 1 {
		days = 1
	}
	if days > maxIvl {
		days = maxIvl
	}
	return days
}

// shortTermStability handles same-day reviews, where the forgetting curve has
// barely started:
//
//	SInc = e^(w[17] * (G - 3 + w[18])) * S^(-w[19])
//	SInc = max(SInc, 1) when G is Good or Easy
//	S'   = clamp(S * SInc)
func (a *algo) shortTermStability(stability float64, r Rating) float64 {
	sInc := math.Exp(a.w[17]*(float64(r)-3+a.w[18])) * math.Pow(stability, -a.w[19])
	if r == Good || r == Easy {
		sInc = math.Max(sInc, 1.0)
	}
	return clampStability(stability * sInc)
}

// nextDifficulty applies linear damping then mean reversion toward D0(Easy):
//
//	dD  = -w[6] * (G - 3)
//	D'  = D + (10 - D) * dD / 9
//	D'' = w[7] * D0(Easy) + (1 - w[7]) * D'
func (a *algo) nextDifficulty(difficulty float64, r Rating) float64 {
	deltaD := -a.w[6] * (float64(r) - 3)
	dPrime := difficulty + (10-difficulty)*deltaD/9
	target := a.initDifficulty(Easy, false)
	return clampDifficulty(a.w[7]*target + (1-a.w[7])*dPrime)
}

func (a *algo) nextStability(d, s, r float64, rating Rating) float64 {
	if rating == Again {
		return a.nextForgetStability(d, s, r)
	}
	return a.nextRecallStability(d, s, r, rating)
}

// nextRecallStability grows stability after a successful cross-day recall.
// The (e^((1-R)*w[10]) - 1) term makes recalling a nearly-forgotten card
// (low R) far more reinforcing than recalling a fresh one.
//
//	S' = S * (1 + e^w[8] * (11-D) * S^(-w[9]) * (e^((1-R)*w[10]) - 1) * hardPenalty * easyBonus)
func (a *algo) nextRecallStability(d, s, r float64, rating Rating) float64 {
	hardPenalty := 1.0
	if rating == Hard {
		hardPenalty = a.w[15]
	}
	easyBonus := 1.0
	if rating == Easy {
		easyBonus = a.w[16]
	}
	return s * (1 + math.Exp(a.w[8])*
		(11-d)*
		math.Pow(s, -a.w[9])*
		(math.Exp((1-r)*a.w[10])-1)*
		hardPenalty*easyBonus)
}

// nextForgetStability collapses stability after a lapse, scaled by difficulty,
// floored by the short-term bound so a lapse can never leave the card stronger
// than a same-day Again would.
//
//	long  = w[11] * D^(-w[12]) * ((S+1)^w[13] - 1) * e^((1-R)*w[14])
//	short = S / e^(w[17] * w[18])
//	S'    = min(long, short)
func (a *algo) nextForgetStability(d, s, r float64) float64 {
	long := a.w[11] *
		math.Pow(d, -a.w[12]) *
		(math.Pow(s+1, a.w[13]) - 1) *
		math.Exp((1-r)*a.w[14])
	short := s / math.Exp(a.w[17]*a.w[18])
	return math.Min(long, short)
}

func clampStability(s float64) float64 {
	return math.Max(s, 0.001)
}

func clampDifficulty(d float64) float64 {
	return math.Min(math.Max(d, 1), 10)
}
