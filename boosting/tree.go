package boosting

import (
	"math"
	"sort"
)

// treeNode is one node of a regression tree. Leaves carry the output value;
// internal nodes carry the split.
type treeNode struct {
	Feature   int
	Threshold float64
	Left      *treeNode
	Right     *treeNode
	Value     float64
	IsLeaf    bool
}

// splitResult describes the best split found for a node.
type splitResult struct {
	feature   int
	threshold float64
	gain      float64
	leftIdx   []int
	rightIdx  []int
}

// regressionTree fits piecewise-constant predictions to the current
// residuals. Splits minimize the sum of squared errors with an exact search
// over sorted feature values.
type regressionTree struct {
	root           *treeNode
	maxDepth       int
	minSamplesLeaf int
	featureGain    []float64 // accumulated split gain per feature
}

func newRegressionTree(maxDepth, minSamplesLeaf, nFeatures int) *regressionTree {
	return &regressionTree{
		maxDepth:       maxDepth,
		minSamplesLeaf: minSamplesLeaf,
		featureGain:    make([]float64, nFeatures),
	}
}

// fit builds the tree on the rows listed in idx. features is the candidate
// column subset for this tree (column subsampling happens per tree, as in
// the boosting trainer).
func (t *regressionTree) fit(X [][]float64, target []float64, idx []int, features []int) {
	t.root = t.buildNode(X, target, idx, features, 0)
}

func (t *regressionTree) buildNode(X [][]float64, target []float64, idx []int, features []int, depth int) *treeNode {
	leafValue := meanAt(target, idx)

	if depth >= t.maxDepth || len(idx) < 2*t.minSamplesLeaf {
		return &treeNode{IsLeaf: true, Value: leafValue}
	}

	best := t.bestSplit(X, target, idx, features)
	if best == nil {
		return &treeNode{IsLeaf: true, Value: leafValue}
	}

	t.featureGain[best.feature] += best.gain

	return &treeNode{
		Feature:   best.feature,
		Threshold: best.threshold,
		Left:      t.buildNode(X, target, best.leftIdx, features, depth+1),
		Right:     t.buildNode(X, target, best.rightIdx, features, depth+1),
	}
}

// bestSplit scans every candidate feature with a prefix-sum pass over the
// node's rows sorted by feature value. Gain is the SSE reduction, computed
// as the variance-gain identity sumL²/nL + sumR²/nR - sum²/n.
func (t *regressionTree) bestSplit(X [][]float64, target []float64, idx []int, features []int) *splitResult {
	n := len(idx)

	var total float64
	for _, i := range idx {
		total += target[i]
	}

	var best *splitResult
	order := make([]int, n)

	for _, f := range features {
		copy(order, idx)
		sort.Slice(order, func(a, b int) bool {
			return X[order[a]][f] < X[order[b]][f]
		})

		var sumLeft float64
		for pos := 0; pos < n-1; pos++ {
			sumLeft += target[order[pos]]
			nLeft := pos + 1
			nRight := n - nLeft

			if nLeft < t.minSamplesLeaf || nRight < t.minSamplesLeaf {
				continue
			}
			// No valid threshold between equal values.
			if X[order[pos]][f] == X[order[pos+1]][f] {
				continue
			}

			sumRight := total - sumLeft
			gain := sumLeft*sumLeft/float64(nLeft) +
				sumRight*sumRight/float64(nRight) -
				total*total/float64(n)

			if gain <= 1e-12 {
				continue
			}
			if best == nil || gain > best.gain {
				threshold := (X[order[pos]][f] + X[order[pos+1]][f]) / 2
				best = &splitResult{
					feature:   f,
					threshold: threshold,
					gain:      gain,
					leftIdx:   append([]int(nil), order[:nLeft]...),
					rightIdx:  append([]int(nil), order[nLeft:]...),
				}
			}
		}
	}

	return best
}

// predict returns the tree output for one row.
func (t *regressionTree) predict(row []float64) float64 {
	node := t.root
	for !node.IsLeaf {
		if row[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Value
}

func meanAt(values []float64, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	var sum float64
	for _, i := range idx {
		sum += values[i]
	}
	m := sum / float64(len(idx))
	if math.IsNaN(m) {
		return 0
	}
	return m
}
