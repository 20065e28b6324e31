package forest

import (
	"math/rand"
	"sort"
)

type node struct {
	feature     int
	threshold   float64
	left, right int
	leaf        bool
	prob        float64
}

// tree is a binary CART tree stored as a flat node slice; index 0 is the root.
type tree struct {
	nodes []node
}

func (t *tree) predict(row []float64) float64 {
	i := 0
	for {
		n := &t.nodes[i]
		if n.leaf {
			return n.prob
		}
		if row[n.feature] <= n.threshold {
			i = n.left
		} else {
			i = n.right
		}
	}
}

// builder grows one tree from a bootstrap sample.
type builder struct {
	cols            [][]float64 // feature-major view of the training matrix
	labels          []int
	maxDepth        int
	minSamplesSplit int
	maxFeatures     int
	rng             *rand.Rand
	t               *tree
}

func (b *builder) grow(idx []int, depth int) int {
	pos := countPositive(b.labels, idx)
	self := len(b.t.nodes)
	b.t.nodes = append(b.t.nodes, node{leaf: true, prob: float64(pos) / float64(len(idx))})

	if depth >= b.maxDepth || len(idx) < b.minSamplesSplit || pos == 0 || pos == len(idx) {
		return self
	}

	feature, threshold, ok := b.bestSplit(idx, pos)
	if !ok {
		return self
	}

	var left, right []int
	for _, i := range idx {
		if b.cols[feature][i] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.t.nodes[self] = node{feature: feature, threshold: threshold, left: l, right: r}
	return self
}

// bestSplit samples maxFeatures features and returns the threshold with the
// lowest weighted gini impurity, provided it improves on the parent.
func (b *builder) bestSplit(idx []int, pos int) (int, float64, bool) {
	n := float64(len(idx))
	bestImpurity := gini(pos, len(idx))
	bestFeature, bestThreshold, found := -1, 0.0, false

	sorted := make([]int, len(idx))
	for _, f := range b.rng.Perm(len(b.cols))[:b.maxFeatures] {
		col := b.cols[f]
		copy(sorted, idx)
		sort.Slice(sorted, func(i, j int) bool { return col[sorted[i]] < col[sorted[j]] })

		leftPos := 0
		for k := 1; k < len(sorted); k++ {
			leftPos += b.labels[sorted[k-1]]
			lo, hi := col[sorted[k-1]], col[sorted[k]]
			if lo == hi {
				continue
			}
			weighted := (float64(k)*gini(leftPos, k) + float64(len(sorted)-k)*gini(pos-leftPos, len(sorted)-k)) / n
			if weighted < bestImpurity {
				bestImpurity = weighted
				bestFeature = f
				bestThreshold = lo + (hi-lo)/2
				found = true
			}
		}
	}
	return bestFeature, bestThreshold, found
}

func gini(pos, n int) float64 {
	if n == 0 {
		return 0
	}
	p := float64(pos) / float64(n)
	return 1 - p*p - (1-p)*(1-p)
}

func countPositive(labels []int, idx []int) int {
	var pos int
	for _, i := range idx {
		pos += labels[i]
	}
	return pos
}
