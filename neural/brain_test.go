package neural

import (
	"math"
	"math/rand"
	"testing"
)

func TestNewForagerGenome(t *testing.T) {
	genome := NewForagerGenome(1, rand.New(rand.NewSource(1)), 0.3)

	if genome == nil {
		t.Fatal("NewForagerGenome returned nil")
	}
	if genome.Id != 1 {
		t.Errorf("expected genome ID 1, got %d", genome.Id)
	}

	expectedNodes := NumInputs + NumOutputs
	if len(genome.Nodes) != expectedNodes {
		t.Errorf("expected %d nodes, got %d", expectedNodes, len(genome.Nodes))
	}
	if len(genome.Genes) == 0 {
		t.Error("expected at least 1 gene, got 0")
	}
}

func TestNewForagerGenomeFullyConnected(t *testing.T) {
	genome := NewForagerGenome(2, rand.New(rand.NewSource(1)), 1.0)
	if len(genome.Genes) != NumInputs*NumOutputs {
		t.Errorf("expected %d genes, got %d", NumInputs*NumOutputs, len(genome.Genes))
	}
}

func TestNewForagerGenomeNeverEmpty(t *testing.T) {
	genome := NewForagerGenome(3, rand.New(rand.NewSource(1)), 0)
	if len(genome.Genes) != 1 {
		t.Errorf("expected the fallback gene, got %d genes", len(genome.Genes))
	}
}

func TestBrainPolicyActivate(t *testing.T) {
	genome := NewForagerGenome(1, rand.New(rand.NewSource(5)), 1.0)
	policy, err := NewBrainPolicy(genome)
	if err != nil {
		t.Fatalf("NewBrainPolicy failed: %v", err)
	}
	if policy.Genome != genome {
		t.Error("policy genome mismatch")
	}

	inputs := []float64{120, 100, 0.5, 1, 300}
	outputs, err := policy.Activate(inputs)
	if err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	if len(outputs) != NumOutputs {
		t.Fatalf("expected %d outputs, got %d", NumOutputs, len(outputs))
	}
	for i, v := range outputs {
		if math.IsNaN(v) || v < 0 || v > 1 {
			t.Errorf("output %d = %v, want [0,1]", i, v)
		}
	}

	// Flushed between calls, so the same input gives the same output
	again, err := policy.Activate(inputs)
	if err != nil {
		t.Fatal(err)
	}
	for i := range outputs {
		if math.Abs(outputs[i]-again[i]) > 1e-12 {
			t.Errorf("output %d changed between calls: %v vs %v", i, outputs[i], again[i])
		}
	}
}

func TestBrainPolicyRejectsWrongInputs(t *testing.T) {
	policy, err := NewBrainPolicy(NewForagerGenome(1, rand.New(rand.NewSource(1)), 1.0))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := policy.Activate([]float64{1}); err == nil {
		t.Error("expected error for short input")
	}
}

func TestBrainPolicyFork(t *testing.T) {
	policy, err := NewBrainPolicy(NewForagerGenome(1, rand.New(rand.NewSource(9)), 1.0))
	if err != nil {
		t.Fatal(err)
	}
	fork, err := policy.Fork()
	if err != nil {
		t.Fatalf("Fork: %v", err)
	}
	if fork == policy || fork.network == policy.network {
		t.Error("fork shares the phenotype")
	}
	if fork.LinkCount() != policy.LinkCount() {
		t.Errorf("link count %d vs %d", fork.LinkCount(), policy.LinkCount())
	}
}
