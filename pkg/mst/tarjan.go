package mst

// findCycles locates the non-trivial strongly connected components of the
// functional graph m→heads[m] with Tarjan's algorithm. Each cycle is a
// membership mask over the tokens. Components complete in dependency order,
// so the last returned cycle is the one the contraction step collapses.
func findCycles(heads []int) [][]bool {
	n := len(heads)

	// Invert the head assignment into head→dependents adjacency, dependents
	// in ascending token order.
	dependents := make([][]int, n)
	for m, h := range heads {
		dependents[h] = append(dependents[h], m)
	}

	indices := make([]int, n)
	lowlinks := make([]int, n)
	onStack := make([]bool, n)
	for i := range indices {
		indices[i] = -1
		lowlinks[i] = -1
	}
	var stack []int
	counter := 0
	var cycles [][]bool

	var connect func(i int)
	connect = func(i int) {
		indices[i] = counter
		lowlinks[i] = counter
		counter++
		stack = append(stack, i)
		onStack[i] = true

		for _, j := range dependents[i] {
			if indices[j] == -1 {
				connect(j)
				if lowlinks[j] < lowlinks[i] {
					lowlinks[i] = lowlinks[j]
				}
			} else if onStack[j] && indices[j] < lowlinks[i] {
				lowlinks[i] = indices[j]
			}
		}

		if lowlinks[i] != indices[i] {
			return
		}
		cycle := make([]bool, n)
		size := 0
		for {
			j := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			onStack[j] = false
			cycle[j] = true
			size++
			if j == i {
				break
			}
		}
		if size > 1 {
			cycles = append(cycles, cycle)
		}
	}

	for i := 0; i < n; i++ {
		if indices[i] == -1 {
			connect(i)
		}
	}
	return cycles
}
