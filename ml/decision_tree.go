package ml

import (
	"errors"
	"fmt"
)

// TreeNode is one node of a fitted tree. Internal nodes send a sample left
// when feature <= threshold. Leaves carry the class weights (legitimate,
// fraud) seen during fitting.
type TreeNode struct {
	Feature    string     `json:"feature,omitempty"`
	Threshold  float64    `json:"threshold"`
	LeftChild  int        `json:"left_child"`
	RightChild int        `json:"right_child"`
	Value      [2]float64 `json:"value"`
	IsLeaf     bool       `json:"is_leaf"`
}

type TreeSpec struct {
	Nodes []TreeNode `json:"nodes"`
}

type ForestSpec struct {
	Trees []TreeSpec `json:"trees"`
}

type DecisionTree struct {
	nodes []TreeNode
}

// NewDecisionTree checks the node table against the encoded feature names.
// Children must point forward so a walk always terminates.
func NewDecisionTree(spec TreeSpec, features []string) (*DecisionTree, error) {
	if len(spec.Nodes) == 0 {
		return nil, errors.New("tree has no nodes")
	}
	known := make(map[string]bool, len(features))
	for _, f := range features {
		known[f] = true
	}
	for i, node := range spec.Nodes {
		if node.IsLeaf {
			if node.Value[0] < 0 || node.Value[1] < 0 || node.Value[0]+node.Value[1] <= 0 {
				return nil, fmt.Errorf("node %d: leaf has no class weight", i)
			}
			continue
		}
		if !known[node.Feature] {
			return nil, fmt.Errorf("node %d: unknown feature %q", i, node.Feature)
		}
		for _, child := range []int{node.LeftChild, node.RightChild} {
			if child <= i || child >= len(spec.Nodes) {
				return nil, fmt.Errorf("node %d: invalid child %d", i, child)
			}
		}
	}
	return &DecisionTree{nodes: spec.Nodes}, nil
}

func (dt *DecisionTree) proba(features map[string]float64) ([2]float64, error) {
	if len(dt.nodes) == 0 {
		return [2]float64{}, errors.New("model not loaded")
	}
	idx := 0
	for {
		node := dt.nodes[idx]
		if node.IsLeaf {
			total := node.Value[0] + node.Value[1]
			return [2]float64{node.Value[0] / total, node.Value[1] / total}, nil
		}
		x, ok := features[node.Feature]
		if !ok {
			return [2]float64{}, fmt.Errorf("feature %q missing from input", node.Feature)
		}
		if x <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
		if idx < 0 || idx >= len(dt.nodes) {
			return [2]float64{}, errors.New("invalid tree state")
		}
	}
}

// RandomForest averages the class distributions of its trees.
type RandomForest struct {
	trees []*DecisionTree
}

func NewRandomForest(spec ForestSpec, features []string) (*RandomForest, error) {
	if len(spec.Trees) == 0 {
		return nil, errors.New("forest has no trees")
	}
	rf := &RandomForest{trees: make([]*DecisionTree, 0, len(spec.Trees))}
	for i, ts := range spec.Trees {
		tree, err := NewDecisionTree(ts, features)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		rf.trees = append(rf.trees, tree)
	}
	return rf, nil
}

func (rf *RandomForest) proba(features map[string]float64) ([2]float64, error) {
	var sum [2]float64
	for _, tree := range rf.trees {
		p, err := tree.proba(features)
		if err != nil {
			return [2]float64{}, err
		}
		sum[0] += p[0]
		sum[1] += p[1]
	}
	n := float64(len(rf.trees))
	return [2]float64{sum[0] / n, sum[1] / n}, nil
}
