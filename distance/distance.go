package distance

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// SquaredL2 calculates the squared Euclidean distance between two points.
// Assumes points are the same length (caller's responsibility).
func SquaredL2(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// L2 calculates the Euclidean distance between two points.
func L2(a, b []float64) float64 {
	return floats.Distance(a, b, 2)
}

// Manhattan calculates the L1 distance between two points.
func Manhattan(a, b []float64) float64 {
	return floats.Distance(a, b, 1)
}

// Chebyshev calculates the L∞ distance between two points.
func Chebyshev(a, b []float64) float64 {
	return floats.Distance(a, b, math.Inf(1))
}

// Metric represents the distance metric used for point comparison.
type Metric int

const (
	MetricL2 Metric = iota
	MetricSquaredL2
	MetricManhattan
	MetricChebyshev
)

func (m Metric) String() string {
	switch m {
	case MetricL2:
		return "L2"
	case MetricSquaredL2:
		return "SquaredL2"
	case MetricManhattan:
		return "Manhattan"
	case MetricChebyshev:
		return "Chebyshev"
	default:
		return fmt.Sprintf("Unknown(%d)", m)
	}
}

// ParseMetric resolves a metric by its case-insensitive name.
func ParseMetric(name string) (Metric, error) {
	switch strings.ToLower(name) {
	case "", "l2", "euclidean":
		return MetricL2, nil
	case "squaredl2", "sql2":
		return MetricSquaredL2, nil
	case "manhattan", "l1", "cityblock":
		return MetricManhattan, nil
	case "chebyshev", "linf":
		return MetricChebyshev, nil
	default:
		return 0, fmt.Errorf("unknown metric %q", name)
	}
}

// Func is a function type for distance calculation.
type Func func(a, b []float64) float64

// Provider returns the distance function for the given metric.
func Provider(m Metric) (Func, error) {
	switch m {
	case MetricL2:
		return L2, nil
	case MetricSquaredL2:
		return SquaredL2, nil
	case MetricManhattan:
		return Manhattan, nil
	case MetricChebyshev:
		return Chebyshev, nil
	default:
		return nil, fmt.Errorf("unsupported metric: %v", m)
	}
}
