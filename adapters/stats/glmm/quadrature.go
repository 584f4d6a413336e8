package glmm

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// hermiteRule returns the nodes and log-weights of the n-point Gauss-Hermite
// rule for integrals of the form ∫ e^{-z²} f(z) dz. Nodes and weights come
// from the Golub-Welsch eigendecomposition of the Jacobi matrix of the
// Hermite three-term recurrence: the nodes are its eigenvalues and each
// weight is √π times the squared first component of the matching eigenvector.
func hermiteRule(n int) (nodes, logWeights []float64, err error) {
	if n < 1 {
		return nil, nil, fmt.Errorf("quadrature order must be positive, got %d", n)
	}
	if n == 1 {
		return []float64{0}, []float64{0.5 * math.Log(math.Pi)}, nil
	}

	jacobi := mat.NewSymDense(n, nil)
	for i := 0; i < n-1; i++ {
		jacobi.SetSym(i, i+1, math.Sqrt(float64(i+1)/2))
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(jacobi, true); !ok {
		return nil, nil, fmt.Errorf("hermite jacobi matrix eigendecomposition failed for order %d", n)
	}

	nodes = eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	logWeights = make([]float64, n)
	halfLogPi := 0.5 * math.Log(math.Pi)
	for k := 0; k < n; k++ {
		v0 := vecs.At(0, k)
		logWeights[k] = halfLogPi + 2*math.Log(math.Abs(v0))
	}
	return nodes, logWeights, nil
}

// logSumExp computes log(Σ exp(x_i)) without overflow.
func logSumExp(xs []float64) float64 {
	maxv := math.Inf(-1)
	for _, x := range xs {
		if x > maxv {
			maxv = x
		}
	}
	if math.IsInf(maxv, -1) {
		return maxv
	}
	sum := 0.0
	for _, x := range xs {
		sum += math.Exp(x - maxv)
	}
	return maxv + math.Log(sum)
}

// softplus computes log(1+exp(x)) stably across the whole real line.
func softplus(x float64) float64 {
	switch {
	case x > 35:
		return x
	case x < -35:
		return math.Exp(x)
	default:
		return math.Log1p(math.Exp(x))
	}
}
