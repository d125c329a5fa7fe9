package privacy

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/cputracker/agent/internal/models"
)

var (
	// ErrInvalidEpsilon indicates a non-positive privacy budget.
	ErrInvalidEpsilon = errors.New("epsilon must be positive")

	// ErrEmptySeries indicates a run produced no samples to aggregate.
	ErrEmptySeries = errors.New("sample series is empty")

	// ErrInvalidBounds indicates a malformed bounds interval.
	ErrInvalidBounds = errors.New("lower bound must be less than upper bound")

	// ErrOutOfBounds indicates a sample outside the declared bounds. Samples
	// are rejected rather than clipped: a reading outside [lower, upper] is a
	// collection bug, not data to be silently repaired.
	ErrOutOfBounds = errors.New("sample outside declared bounds")
)

// Aggregator computes the exact mean and a differentially-private noised mean
// over the same sample series. The noised value is produced by a bounded-mean
// Laplace mechanism: with samples guaranteed to lie in [lower, upper], the sum
// has sensitivity (upper-lower), so Laplace noise with scale
// (upper-lower)/epsilon added to the sum yields an epsilon-DP sum, and
// dividing by the count gives an epsilon-DP mean.
//
// For epsilon=0.5, bounds (0,100) and 50 samples the noise on the mean has
// standard deviation sqrt(2)*(100/0.5)/50 ~= 5.66 percentage points.
type Aggregator struct {
	rng *rand.Rand
}

// NewAggregator creates an aggregator drawing noise from rng. A nil rng falls
// back to a time-seeded source.
func NewAggregator(rng *rand.Rand) *Aggregator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Aggregator{rng: rng}
}

// Compute returns the exact arithmetic mean and a noised mean calibrated to
// params. The noised value derives only from the series and params, never
// from the exact value, and is rounded to 2 decimal places. Additive noise
// may carry the noised mean outside [lower, upper]; no post-clipping is
// applied.
func (a *Aggregator) Compute(series models.SampleSeries, params models.PrivacyParams) (exact, noised float64, err error) {
	if params.Epsilon <= 0 {
		return 0, 0, fmt.Errorf("%w: got %v", ErrInvalidEpsilon, params.Epsilon)
	}
	if params.Lower >= params.Upper {
		return 0, 0, fmt.Errorf("%w: [%v, %v]", ErrInvalidBounds, params.Lower, params.Upper)
	}
	if len(series) == 0 {
		return 0, 0, ErrEmptySeries
	}

	sum := 0.0
	for i, v := range series {
		if v < params.Lower || v > params.Upper {
			return 0, 0, fmt.Errorf("%w: sample %d is %v, bounds [%v, %v]",
				ErrOutOfBounds, i, v, params.Lower, params.Upper)
		}
		sum += v
	}

	n := float64(len(series))
	exact = sum / n

	scale := (params.Upper - params.Lower) / params.Epsilon
	noised = (sum + a.laplace(scale)) / n
	noised = math.Round(noised*100) / 100

	return exact, noised, nil
}

// laplace draws from a zero-mean Laplace distribution with the given scale
// via inverse transform sampling.
func (a *Aggregator) laplace(scale float64) float64 {
	u := a.rng.Float64() - 0.5
	sign := 1.0
	if u < 0 {
		sign = -1.0
	}
	return -scale * sign * math.Log(1-2*math.Abs(u))
}
