package tracking

import "math"

// Cost that marks a pair as ineligible. Real costs are in [0,1], so this dominates the sum of
// any realistic assignment while keeping the potentials well inside float64 precision.
const forbiddenCost = 1e6

// hungarianAssign solves the rectangular minimum-cost assignment problem with the
// Kuhn-Munkres algorithm (shortest augmenting path with row/column potentials), in O(n^3).
// Returns result[row] = column, or -1 if the row is unassigned or only forbidden columns remain.
func hungarianAssign(cost [][]float64) []int {
	nRows := len(cost)
	if nRows == 0 {
		return nil
	}
	nCols := len(cost[0])
	result := make([]int, nRows)
	for i := range result {
		result[i] = -1
	}
	if nCols == 0 {
		return result
	}

	// Pad to a square matrix. Padding cells are forbidden, so excess rows or columns stay unassigned.
	dim := max(nRows, nCols)
	at := func(r, c int) float64 {
		if r < nRows && c < nCols {
			return cost[r][c]
		}
		return forbiddenCost
	}

	// 1-based indices, with column 0 acting as a virtual source
	const inf = math.MaxFloat64 / 2
	rowPot := make([]float64, dim+1)
	colPot := make([]float64, dim+1)
	colOwner := make([]int, dim+1) // colOwner[c] = row that owns column c
	prevCol := make([]int, dim+1)
	minSlack := make([]float64, dim+1)
	visited := make([]bool, dim+1)

	for row := 1; row <= dim; row++ {
		colOwner[0] = row
		cur := 0
		for c := 0; c <= dim; c++ {
			minSlack[c] = inf
			visited[c] = false
		}
		for {
			visited[cur] = true
			r := colOwner[cur]
			delta := inf
			next := -1
			for c := 1; c <= dim; c++ {
				if visited[c] {
					continue
				}
				slack := at(r-1, c-1) - rowPot[r] - colPot[c]
				if slack < minSlack[c] {
					minSlack[c] = slack
					prevCol[c] = cur
				}
				if minSlack[c] < delta {
					delta = minSlack[c]
					next = c
				}
			}
			if next < 0 {
				break
			}
			for c := 0; c <= dim; c++ {
				if visited[c] {
					rowPot[colOwner[c]] += delta
					colPot[c] -= delta
				} else {
					minSlack[c] -= delta
				}
			}
			cur = next
			if colOwner[cur] == 0 {
				break
			}
		}
		// Flip the augmenting path
		for cur != 0 {
			prev := prevCol[cur]
			colOwner[cur] = colOwner[prev]
			cur = prev
		}
	}

	for c := 1; c <= dim; c++ {
		r := colOwner[c] - 1
		col := c - 1
		if r >= 0 && r < nRows && col < nCols && cost[r][col] < forbiddenCost {
			result[r] = col
		}
	}
	return result
}
