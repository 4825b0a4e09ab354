package optimizer

import "math"

// Big marks a forbidden pairing in a cost matrix.
const Big = 1e6

// solveAssignment returns, for each row of the square cost matrix, the column it
// is matched to in a minimum-cost perfect matching. It is the O(n^3) Kuhn-Munkres
// algorithm with row and column potentials.
func solveAssignment(cost [][]float64) []int {
	n := len(cost)
	if n == 0 {
		return nil
	}

	// 1-indexed; index 0 is the virtual root of each augmenting search.
	u := make([]float64, n+1)
	v := make([]float64, n+1)
	match := make([]int, n+1) // match[col] = row
	way := make([]int, n+1)
	minv := make([]float64, n+1)
	used := make([]bool, n+1)

	for row := 1; row <= n; row++ {
		match[0] = row
		col0 := 0
		for j := range minv {
			minv[j] = math.Inf(1)
			used[j] = false
		}
		for {
			used[col0] = true
			r := match[col0]
			delta := math.Inf(1)
			col1 := 0
			for j := 1; j <= n; j++ {
				if used[j] {
					continue
				}
				cur := cost[r-1][j-1] - u[r] - v[j]
				if cur < minv[j] {
					minv[j] = cur
					way[j] = col0
				}
				if minv[j] < delta {
					delta = minv[j]
					col1 = j
				}
			}
			for j := 0; j <= n; j++ {
				if used[j] {
					u[match[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}
			col0 = col1
			if match[col0] == 0 {
				break
			}
		}
		for col0 != 0 {
			col1 := way[col0]
			match[col0] = match[col1]
			col0 = col1
		}
	}

	assignment := make([]int, n)
	for j := 1; j <= n; j++ {
		if match[j] > 0 {
			assignment[match[j]-1] = j - 1
		}
	}
	return assignment
}

// padSquare copies rows x cols costs into an n x n matrix filled with Big.
func padSquare(cost [][]float64, rows, cols int) [][]float64 {
	n := max(rows, cols)
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, n)
		for j := range out[i] {
			if i < rows && j < cols {
				out[i][j] = cost[i][j]
			} else {
				out[i][j] = Big
			}
		}
	}
	return out
}
