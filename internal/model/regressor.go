package model

import (
	"errors"
	"fmt"
)

// Regressor is a fitted multi-output regression model.
type Regressor interface {
	// NumFeatures is the width of the input vector the model was fitted on.
	NumFeatures() int
	// NumOutputs is the number of targets the model predicts jointly.
	NumOutputs() int
	// Predict evaluates the model for a single sample.
	Predict(x []float64) ([]float64, error)
}

// Supported serialized model kinds.
const (
	KindLinear = "linear"
	KindForest = "forest"
)

var errInputWidth = errors.New("input width does not match model")

// LinearModel is a multi-output linear regressor: y[j] = intercept[j] + Σ coef[j][i]·x[i].
type LinearModel struct {
	Coef      [][]float64 `json:"coef"`
	Intercept []float64   `json:"intercept"`
}

func (m *LinearModel) NumFeatures() int {
	if len(m.Coef) == 0 {
		return 0
	}
	return len(m.Coef[0])
}

func (m *LinearModel) NumOutputs() int { return len(m.Coef) }

func (m *LinearModel) Predict(x []float64) ([]float64, error) {
	if len(x) != m.NumFeatures() {
		return nil, fmt.Errorf("%w: got %d, want %d", errInputWidth, len(x), m.NumFeatures())
	}
	out := make([]float64, len(m.Coef))
	for j, row := range m.Coef {
		sum := m.Intercept[j]
		for i, c := range row {
			sum += c * x[i]
		}
		out[j] = sum
	}
	return out, nil
}

func (m *LinearModel) validate() error {
	if len(m.Coef) == 0 {
		return errors.New("linear model has no coefficients")
	}
	width := len(m.Coef[0])
	if width == 0 {
		return errors.New("linear model has zero-width coefficient rows")
	}
	for j, row := range m.Coef {
		if len(row) != width {
			return fmt.Errorf("coefficient row %d has %d entries, want %d", j, len(row), width)
		}
	}
	if len(m.Intercept) != len(m.Coef) {
		return fmt.Errorf("intercept has %d entries, want %d", len(m.Intercept), len(m.Coef))
	}
	return nil
}

// Node is one node of a regression tree. Leaves have Left == Right == -1 and
// carry one value per output; split nodes send x[Feature] <= Threshold left.
type Node struct {
	Feature   int       `json:"feature"`
	Threshold float64   `json:"threshold"`
	Left      int       `json:"left"`
	Right     int       `json:"right"`
	Value     []float64 `json:"value,omitempty"`
}

func (n Node) isLeaf() bool { return n.Left == -1 && n.Right == -1 }

// Tree is a flattened binary regression tree rooted at node 0.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// ForestModel averages the outputs of an ensemble of regression trees.
type ForestModel struct {
	Features int    `json:"n_features"`
	Outputs  int    `json:"n_outputs"`
	Trees    []Tree `json:"trees"`
}

func (m *ForestModel) NumFeatures() int { return m.Features }

func (m *ForestModel) NumOutputs() int { return m.Outputs }

func (m *ForestModel) Predict(x []float64) ([]float64, error) {
	if len(x) != m.Features {
		return nil, fmt.Errorf("%w: got %d, want %d", errInputWidth, len(x), m.Features)
	}
	out := make([]float64, m.Outputs)
	for _, tree := range m.Trees {
		leaf := tree.leaf(x)
		for j := range out {
			out[j] += leaf.Value[j]
		}
	}
	n := float64(len(m.Trees))
	for j := range out {
		out[j] /= n
	}
	return out, nil
}

// leaf walks from the root to a leaf. validate guarantees children always
// have a larger index than their parent, so the walk terminates.
func (t Tree) leaf(x []float64) Node {
	node := t.Nodes[0]
	for !node.isLeaf() {
		if x[node.Feature] <= node.Threshold {
			node = t.Nodes[node.Left]
		} else {
			node = t.Nodes[node.Right]
		}
	}
	return node
}

func (m *ForestModel) validate() error {
	if m.Features <= 0 || m.Outputs <= 0 {
		return fmt.Errorf("forest declares %d features and %d outputs", m.Features, m.Outputs)
	}
	if len(m.Trees) == 0 {
		return errors.New("forest has no trees")
	}
	for ti, tree := range m.Trees {
		if len(tree.Nodes) == 0 {
			return fmt.Errorf("tree %d is empty", ti)
		}
		for ni, node := range tree.Nodes {
			if node.isLeaf() {
				if len(node.Value) != m.Outputs {
					return fmt.Errorf("tree %d leaf %d has %d values, want %d", ti, ni, len(node.Value), m.Outputs)
				}
				continue
			}
			if node.Feature < 0 || node.Feature >= m.Features {
				return fmt.Errorf("tree %d node %d splits on feature %d of %d", ti, ni, node.Feature, m.Features)
			}
			if node.Left <= ni || node.Left >= len(tree.Nodes) || node.Right <= ni || node.Right >= len(tree.Nodes) {
				return fmt.Errorf("tree %d node %d has invalid children %d/%d", ti, ni, node.Left, node.Right)
			}
		}
	}
	return nil
}
