// Defines the Bubble record that models an individual bubble at the bath
// surface, and Population, the ordered collection the engine steps over.

package sim

import (
	"errors"
	"fmt"
)

// ErrAttrConflict reports an attempt to assign an attribute a bubble
// already carries, e.g. a second lifetime during a merge.
var ErrAttrConflict = errors.New("bubble attribute already set")

// Bubble is a record of optional numeric attributes. Which attributes a
// bubble carries depends on the simulation variant that created it. Size
// attributes use the zero value to mean "not tracked" (legal diameters are
// > 0 and legal volumes >= 1); position, age and lifetime carry explicit
// presence flags because their zero values are legal.
type Bubble struct {
	Diameter float64 // Bubble diameter, in diameter units; 0 = not tracked
	Volume   int     // Integer gas volume; 0 = not tracked

	X, Y   float64 // Position on the square bath surface
	Placed bool    // Tracks whether a move phase has placed the bubble

	Age    int  // Completed steps since birth
	AgeSet bool // Tracks whether the variant ages this bubble

	Lifetime    float64 // Assigned life budget, in steps; immutable once set
	LifetimeSet bool    // Tracks whether a lifetime has been drawn
}

// HasDiameter reports whether the bubble tracks a diameter.
func (b *Bubble) HasDiameter() bool { return b.Diameter > 0 }

// HasVolume reports whether the bubble tracks an integer volume.
func (b *Bubble) HasVolume() bool { return b.Volume > 0 }

// Clone returns an independent copy of the bubble. Variants use it to stamp
// newborns out of their creation template.
func (b *Bubble) Clone() *Bubble {
	c := *b
	return &c
}

// Assign copies every attribute present on init onto b. Assigning an
// attribute b already carries is an invariant violation and fails with
// ErrAttrConflict; b is left partially updated in that case, so callers
// must discard it on error.
func (b *Bubble) Assign(init *Bubble) error {
	if init == nil {
		return nil
	}
	if init.HasDiameter() {
		if b.HasDiameter() {
			return fmt.Errorf("diameter: %w", ErrAttrConflict)
		}
		b.Diameter = init.Diameter
	}
	if init.HasVolume() {
		if b.HasVolume() {
			return fmt.Errorf("volume: %w", ErrAttrConflict)
		}
		b.Volume = init.Volume
	}
	if init.Placed {
		if b.Placed {
			return fmt.Errorf("position: %w", ErrAttrConflict)
		}
		b.X, b.Y, b.Placed = init.X, init.Y, true
	}
	if init.AgeSet {
		if b.AgeSet {
			return fmt.Errorf("age: %w", ErrAttrConflict)
		}
		b.Age, b.AgeSet = init.Age, true
	}
	if init.LifetimeSet {
		if b.LifetimeSet {
			return fmt.Errorf("lifetime: %w", ErrAttrConflict)
		}
		b.Lifetime, b.LifetimeSet = init.Lifetime, true
	}
	return nil
}

// Validate checks the attribute domains: diameters must be positive,
// volumes at least 1, ages and lifetimes non-negative. Zero-size values
// mean "not tracked" and pass.
func (b *Bubble) Validate() error {
	if b.Diameter < 0 {
		return fmt.Errorf("bubble diameter %v: must be > 0 when tracked", b.Diameter)
	}
	if b.Volume < 0 {
		return fmt.Errorf("bubble volume %d: must be >= 1 when tracked", b.Volume)
	}
	if b.AgeSet && b.Age < 0 {
		return fmt.Errorf("bubble age %d: must be >= 0", b.Age)
	}
	if b.LifetimeSet && b.Lifetime < 0 {
		return fmt.Errorf("bubble lifetime %v: must be >= 0", b.Lifetime)
	}
	return nil
}

// attrOrder fixes the label order of the vector view.
var attrOrder = []string{"diameter", "volume", "x", "y", "age", "lifetime"}

// Attrs returns the mapping view over the attributes the bubble carries.
func (b *Bubble) Attrs() map[string]float64 {
	m := make(map[string]float64)
	if b.HasDiameter() {
		m["diameter"] = b.Diameter
	}
	if b.HasVolume() {
		m["volume"] = float64(b.Volume)
	}
	if b.Placed {
		m["x"] = b.X
		m["y"] = b.Y
	}
	if b.AgeSet {
		m["age"] = float64(b.Age)
	}
	if b.LifetimeSet {
		m["lifetime"] = b.Lifetime
	}
	return m
}

// Vector returns the labeled-vector view: present attributes in the stable
// order diameter, volume, x, y, age, lifetime.
func (b *Bubble) Vector() (labels []string, values []float64) {
	m := b.Attrs()
	for _, k := range attrOrder {
		if v, ok := m[k]; ok {
			labels = append(labels, k)
			values = append(values, v)
		}
	}
	return labels, values
}

// Population is the ordered collection of live bubbles. Order is kept for
// deterministic iteration only; it carries no meaning.
type Population []*Bubble

// Clone returns a deep copy of the population.
func (p Population) Clone() Population {
	out := make(Population, len(p))
	for i, b := range p {
		out[i] = b.Clone()
	}
	return out
}

// TotalVolume sums the tracked volumes across the population.
func (p Population) TotalVolume() int {
	total := 0
	for _, b := range p {
		total += b.Volume
	}
	return total
}
