package edition

import "math"

// Payment method indexes, in column order.
const (
	Debit = iota
	Credit
	Transfer
	Other
)

// MethodNames are the payment methods in index order.
var MethodNames = [4]string{"debit", "credit", "transfer", "other"}

// PaymentMix holds integer percentages per payment method. A normalized mix sums to 100.
type PaymentMix [4]int

// DefaultMix substitutes for inputs that carry no information.
var DefaultMix = PaymentMix{40, 20, 30, 10}

// Sum returns the total of the four percentages.
func (m PaymentMix) Sum() int {
	return m[0] + m[1] + m[2] + m[3]
}

// Raw converts the mix back to a raw input vector.
func (m PaymentMix) Raw() [4]float64 {
	return [4]float64{float64(m[0]), float64(m[1]), float64(m[2]), float64(m[3])}
}

// Normalize turns four percentage-like numbers into integer percentages that
// sum to exactly 100. Negative inputs count as zero and an all-zero input
// yields DefaultMix. The rounding residual is added to debit (index 0); if that
// would make debit negative the largest component takes it instead.
func Normalize(raw [4]float64) PaymentMix {
	var sum float64
	for i, v := range raw {
		if v < 0 || math.IsNaN(v) {
			raw[i] = 0
		}
		sum += raw[i]
	}
	if sum <= 0 || math.IsInf(sum, 0) {
		return DefaultMix
	}

	var mix PaymentMix
	for i, v := range raw {
		mix[i] = int(math.Round(v / sum * 100))
	}

	residual := 100 - mix.Sum()
	if residual == 0 {
		return mix
	}
	target := Debit
	if mix[Debit]+residual < 0 {
		target = largest(mix)
	}
	mix[target] += residual
	return mix
}

func largest(m PaymentMix) int {
	best := 0
	for i := 1; i < len(m); i++ {
		if m[i] > m[best] {
			best = i
		}
	}
	return best
}

// MethodCounts estimates students per payment method. The counts are rounded
// independently and need not add up to enrollment.
func MethodCounts(enrollment int, mix PaymentMix) [4]int {
	var out [4]int
	for i, pct := range mix {
		out[i] = int(math.Round(float64(enrollment) * float64(pct) / 100))
	}
	return out
}
