package neural

import (
	"fmt"
	"math/rand"

	"github.com/yaricom/goNEAT/v4/neat/genetics"
	neatmath "github.com/yaricom/goNEAT/v4/neat/math"
	"github.com/yaricom/goNEAT/v4/neat/network"
)

// BrainPolicy wraps a goNEAT network for runtime evaluation. The phenotype
// carries activation state between calls, so a BrainPolicy must not be
// shared across goroutines.
type BrainPolicy struct {
	Genome  *genetics.Genome
	network *network.Network
}

// NewBrainPolicy creates a policy from a genome.
func NewBrainPolicy(genome *genetics.Genome) (*BrainPolicy, error) {
	phenotype, err := genome.Genesis(genome.Id)
	if err != nil {
		return nil, fmt.Errorf("failed to build network from genome: %w", err)
	}

	return &BrainPolicy{
		Genome:  genome,
		network: phenotype,
	}, nil
}

// Activate implements Policy.
func (b *BrainPolicy) Activate(inputs []float64) ([]float64, error) {
	if len(inputs) != NumInputs {
		return nil, fmt.Errorf("expected %d inputs, got %d", NumInputs, len(inputs))
	}

	squashed := make([]float64, len(inputs))
	for i, v := range inputs {
		squashed[i] = squash(v)
	}
	if err := b.network.LoadSensors(squashed); err != nil {
		return nil, fmt.Errorf("failed to load sensors: %w", err)
	}

	// Activate with depth-based steps for proper signal propagation
	depth, err := b.network.MaxActivationDepth()
	if err != nil || depth < 1 {
		depth = 5 // Fallback for simple networks
	}

	for i := 0; i < depth; i++ {
		if _, err := b.network.Activate(); err != nil {
			return nil, fmt.Errorf("activation failed: %w", err)
		}
	}

	outputs := b.network.ReadOutputs()

	// Flush network state for the next agent
	if _, err := b.network.Flush(); err != nil {
		return nil, fmt.Errorf("flush failed: %w", err)
	}

	return outputs, nil
}

// Fork returns an independent policy built from the same genome, for use
// by another simulation running in parallel.
func (b *BrainPolicy) Fork() (*BrainPolicy, error) {
	return NewBrainPolicy(b.Genome)
}

// NodeCount returns the number of nodes in the network.
func (b *BrainPolicy) NodeCount() int {
	return b.network.NodeCount()
}

// LinkCount returns the number of links (connections) in the network.
func (b *BrainPolicy) LinkCount() int {
	return b.network.LinkCount()
}

// NewForagerGenome creates a genome with NumInputs sensors and NumOutputs
// sigmoid outputs. Each input-output pair is connected with probability
// connectionProb; at least one link is always present.
func NewForagerGenome(id int, rng *rand.Rand, connectionProb float64) *genetics.Genome {
	nodes := make([]*network.NNode, 0, NumInputs+NumOutputs)

	// Input nodes (IDs 1 to NumInputs)
	for i := 1; i <= NumInputs; i++ {
		node := network.NewNNode(i, network.InputNeuron)
		node.ActivationType = neatmath.LinearActivation
		nodes = append(nodes, node)
	}

	// Output nodes (IDs NumInputs+1 to NumInputs+NumOutputs)
	for i := 1; i <= NumOutputs; i++ {
		node := network.NewNNode(NumInputs+i, network.OutputNeuron)
		node.ActivationType = neatmath.SigmoidSteepenedActivation
		nodes = append(nodes, node)
	}

	genes := make([]*genetics.Gene, 0, NumInputs*NumOutputs)
	innovNum := int64(1)

	for i := 0; i < NumInputs; i++ {
		for j := 0; j < NumOutputs; j++ {
			// Always increment innovation for consistent tracking
			currentInnov := innovNum
			innovNum++

			if rng.Float64() < connectionProb {
				weight := rng.Float64()*4 - 2 // [-2, 2]
				genes = append(genes, genetics.NewGeneWithTrait(
					nil, weight, nodes[i], nodes[NumInputs+j], false, currentInnov, 0,
				))
			}
		}
	}

	if len(genes) == 0 {
		genes = append(genes, genetics.NewGeneWithTrait(
			nil, rng.Float64()*2-1, nodes[0], nodes[NumInputs], false, 1, 0,
		))
	}

	return genetics.NewGenome(id, nil, nodes, genes)
}
