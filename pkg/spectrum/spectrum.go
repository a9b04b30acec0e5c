// Package spectrum models a discrete spectral energy distribution and
// draws event energies from it by inverse-CDF sampling.
package spectrum

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"slices"
	"sort"
	"time"
)

// ErrMalformed flags spectral input that does not form a usable
// two-row energy/flux table.
var ErrMalformed = errors.New("malformed spectrum")

// Spectrum is a discrete spectral model: energy bin centers and their
// relative fluxes. Fluxes need not be normalized; sampling weights each
// energy by its share of the total.
type Spectrum struct {
	Energies []float64
	Fluxes   []float64

	rng *rand.Rand
}

// FromRows builds a spectrum from a two-row table: energies across the
// first row, fluxes across the second. Anything else is malformed.
func FromRows(rows [][]float64) (*Spectrum, error) {
	if len(rows) != 2 {
		return nil, fmt.Errorf("spectrum: expected 2 rows, got %d: %w", len(rows), ErrMalformed)
	}
	energies, fluxes := rows[0], rows[1]
	if len(energies) == 0 {
		return nil, fmt.Errorf("spectrum: no energy bins: %w", ErrMalformed)
	}
	if len(energies) != len(fluxes) {
		return nil, fmt.Errorf("spectrum: %d energies but %d fluxes: %w", len(energies), len(fluxes), ErrMalformed)
	}
	var total float64
	for _, f := range fluxes {
		if math.IsNaN(f) || f < 0 {
			return nil, fmt.Errorf("spectrum: invalid flux %g: %w", f, ErrMalformed)
		}
		total += f
	}
	if total == 0 {
		return nil, fmt.Errorf("spectrum: fluxes sum to zero: %w", ErrMalformed)
	}
	return &Spectrum{Energies: slices.Clone(energies), Fluxes: slices.Clone(fluxes)}, nil
}

// Seed fixes the random source so draws are reproducible. A zero seed
// falls back to the current time.
func (s *Spectrum) Seed(seed int64) {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	s.rng = rand.New(rand.NewSource(seed))
}

// Sample draws n energies distributed according to the flux weights.
// Each draw picks the first energy bin whose cumulative probability
// exceeds a uniform variate.
func (s *Spectrum) Sample(n int) ([]float64, error) {
	if n < 0 {
		return nil, fmt.Errorf("spectrum: negative sample count %d", n)
	}
	var total float64
	for _, f := range s.Fluxes {
		total += f
	}
	if total <= 0 || len(s.Energies) != len(s.Fluxes) || len(s.Energies) == 0 {
		return nil, fmt.Errorf("spectrum: %w", ErrMalformed)
	}

	cum := make([]float64, len(s.Fluxes))
	var running float64
	for i, f := range s.Fluxes {
		running += f / total
		cum[i] = running
	}

	rng := s.rng
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	out := make([]float64, n)
	for i := range out {
		r := rng.Float64()
		idx := sort.Search(len(cum), func(j int) bool { return cum[j] > r })
		if idx == len(cum) {
			idx = len(cum) - 1
		}
		out[i] = s.Energies[idx]
	}
	return out, nil
}

// SampleEnergies adapts the spectrum to the events package sampler
// interface.
func (s *Spectrum) SampleEnergies(n int) ([]float64, error) {
	return s.Sample(n)
}
