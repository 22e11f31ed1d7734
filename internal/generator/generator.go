// Package generator seeds the synthetic edition dataset from the catalog.
// All randomness comes from the injected Rand, so a seed fully determines output.
package generator

import (
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"coursedash/internal/catalog"
	"coursedash/internal/edition"
	"coursedash/internal/logging"
)

// Rand is the random source the generator draws from. *rand.Rand satisfies it.
type Rand interface {
	IntN(n int) int
	Float64() float64
	NormFloat64() float64
}

// NewRand returns a PCG-backed source for seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Generate builds the base dataset for every year in the policy.
func Generate(cat *catalog.Catalog, policy Policy, rng Rand) ([]edition.Edition, error) {
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	if err := policy.Validate(cat); err != nil {
		return nil, err
	}

	timer := logging.StartTimer(logging.CategoryGenerator, "generate")
	defer timer.Stop()

	g := &gen{cat: cat, policy: policy, rng: rng}
	var rows []edition.Edition
	for _, year := range policy.Years {
		var err error
		switch policy.Mode {
		case ModeFixed:
			rows, err = g.fixedYear(rows, year)
		case ModeRandomized:
			rows = g.randomYear(rows, year)
		}
		if err != nil {
			return nil, err
		}
	}

	logging.Get(logging.CategoryGenerator).Info("generated %d editions (%s, %d years)", len(rows), policy.Mode, len(policy.Years))
	return rows, nil
}

type gen struct {
	cat    *catalog.Catalog
	policy Policy
	rng    Rand
}

func (g *gen) fixedYear(rows []edition.Edition, year int) ([]edition.Edition, error) {
	band := g.policy.YearBands[year]
	for _, slot := range g.policy.Schedule[year] {
		p, ok := g.cat.Program(slot.Program)
		if !ok {
			return nil, fmt.Errorf("schedule %d: %w", year, catalog.Configf("program", "unknown program %q", slot.Program))
		}
		n := g.between(band.Min, band.Max)
		e := edition.New(p, year, slot.Month, g.cat.MonthLabel(slot.Month), n, [4]float64{}, 0)
		g.categorize(&e)
		rows = append(rows, e)
	}
	return rows, nil
}

func (g *gen) randomYear(rows []edition.Edition, year int) []edition.Edition {
	maxPrograms := min(g.policy.MaxProgramsPerYear, len(g.cat.Programs))
	offered := g.sample(len(g.cat.Programs), 1+g.rng.IntN(maxPrograms))

	for _, pi := range offered {
		p := g.cat.Programs[pi]
		maxStarts := min(g.policy.MaxStartsPerProgram, len(g.policy.CandidateMonths))
		picks := g.sample(len(g.policy.CandidateMonths), 1+g.rng.IntN(maxStarts))
		months := make([]int, len(picks))
		for i, mi := range picks {
			months[i] = g.policy.CandidateMonths[mi]
		}
		slices.Sort(months)

		for _, m := range months {
			n := g.between(p.EnrollmentMin, p.EnrollmentMax)
			mix := g.dirichlet(g.policy.PaymentAlpha)
			var raw [4]float64
			for i, share := range mix {
				raw[i] = share * 100
			}
			placements := g.rng.IntN(int(g.policy.PlacementRatio*float64(n)) + 1)

			e := edition.New(p, year, m, g.cat.MonthLabel(m), n, raw, placements)
			g.categorize(&e)
			rows = append(rows, e)
		}
	}
	return rows
}

func (g *gen) categorize(e *edition.Edition) {
	e.Channel = g.pick(g.cat.Channels)
	e.Region = g.pick(g.cat.Regions)
	e.Discipline = g.pick(g.cat.Disciplines)
}

// between draws uniformly from [lo, hi].
func (g *gen) between(lo, hi int) int {
	return lo + g.rng.IntN(hi-lo+1)
}

// pick draws one vocabulary value by its weights.
func (g *gen) pick(v catalog.Vocabulary) string {
	probs := v.Probabilities()
	u := g.rng.Float64()
	var acc float64
	for i, p := range probs {
		acc += p
		if u < acc {
			return v.Values[i]
		}
	}
	return v.Values[len(v.Values)-1]
}

// sample returns k distinct indexes from [0, n) in ascending order.
func (g *gen) sample(n, k int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	for i := 0; i < k; i++ {
		j := i + g.rng.IntN(n-i)
		idx[i], idx[j] = idx[j], idx[i]
	}
	out := idx[:k]
	slices.Sort(out)
	return out
}

// dirichlet draws a random composition with the given concentrations.
func (g *gen) dirichlet(alpha []float64) []float64 {
	out := make([]float64, len(alpha))
	var sum float64
	for i, a := range alpha {
		out[i] = g.gamma(a)
		sum += out[i]
	}
	if sum <= 0 {
		return out
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// gamma samples Gamma(shape, 1) with the Marsaglia–Tsang method.
func (g *gen) gamma(shape float64) float64 {
	if shape < 1 {
		u := g.rng.Float64()
		return g.gamma(shape+1) * math.Pow(u, 1/shape)
	}
	d := shape - 1.0/3
	c := 1 / math.Sqrt(9*d)
	for {
		x := g.rng.NormFloat64()
		v := 1 + c*x
		if v <= 0 {
			continue
		}
		v = v * v * v
		u := g.rng.Float64()
		if u < 1-0.0331*x*x*x*x {
			return d * v
		}
		if math.Log(u) < 0.5*x*x+d*(1-v+math.Log(v)) {
			return d * v
		}
	}
}
