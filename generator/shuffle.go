package generator

import "github.com/beka-birhanu/vinom-sandbox/maze"

// Shuffle permutes n elements in place with Fisher-Yates: element i is swapped with a
// uniformly chosen element of [i, n).
func Shuffle(r maze.Rand, n int, swap func(i, j int)) {
	for i := 0; i < n; i++ {
		j := i + r.Intn(n-i)
		swap(i, j)
	}
}
