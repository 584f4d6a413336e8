package glmm

import (
	"math"
	"testing"
)

func TestHermiteRuleWeightsSumToSqrtPi(t *testing.T) {
	for _, n := range []int{1, 2, 5, 15} {
		nodes, logw, err := hermiteRule(n)
		if err != nil {
			t.Fatalf("order %d: %v", n, err)
		}
		if len(nodes) != n || len(logw) != n {
			t.Fatalf("order %d: got %d nodes and %d weights", n, len(nodes), len(logw))
		}
		sum := 0.0
		for _, lw := range logw {
			sum += math.Exp(lw)
		}
		if math.Abs(sum-math.Sqrt(math.Pi)) > 1e-10 {
			t.Errorf("order %d: weights sum to %v, want sqrt(pi)", n, sum)
		}
	}
}

func TestHermiteRuleIntegratesGaussianMoments(t *testing.T) {
	// ∫ e^{-z²} z² dz = sqrt(pi)/2
	nodes, logw, err := hermiteRule(15)
	if err != nil {
		t.Fatalf("rule: %v", err)
	}
	sum := 0.0
	for k, z := range nodes {
		sum += math.Exp(logw[k]) * z * z
	}
	if math.Abs(sum-math.Sqrt(math.Pi)/2) > 1e-10 {
		t.Errorf("second moment %v, want sqrt(pi)/2", sum)
	}
}

func TestHermiteRuleNodesSymmetric(t *testing.T) {
	nodes, _, err := hermiteRule(7)
	if err != nil {
		t.Fatalf("rule: %v", err)
	}
	for i := range nodes {
		if math.Abs(nodes[i]+nodes[len(nodes)-1-i]) > 1e-10 {
			t.Fatalf("nodes not symmetric: %v", nodes)
		}
	}
}

func TestHermiteRuleRejectsZeroOrder(t *testing.T) {
	if _, _, err := hermiteRule(0); err == nil {
		t.Fatal("expected error for zero order")
	}
}

func TestSoftplusStable(t *testing.T) {
	if got := softplus(1000); got != 1000 {
		t.Errorf("softplus(1000) = %v", got)
	}
	if got := softplus(-1000); got != 0 {
		t.Errorf("softplus(-1000) = %v, want 0", got)
	}
	if math.Abs(softplus(0)-math.Ln2) > 1e-15 {
		t.Errorf("softplus(0) = %v, want ln 2", softplus(0))
	}
}
