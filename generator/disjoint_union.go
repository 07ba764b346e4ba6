package generator

import "fmt"

// DisjointUnion is a union-find over the elements [0, n).
type DisjointUnion struct {
	parent []int // -1 marks a root
	size   []int // valid at roots only
}

// NewDisjointUnion returns n singleton sets.
func NewDisjointUnion(n int) *DisjointUnion {
	d := &DisjointUnion{
		parent: make([]int, n),
		size:   make([]int, n),
	}
	for i := range d.parent {
		d.parent[i] = -1
		d.size[i] = 1
	}
	return d
}

// Len returns the number of elements.
func (d *DisjointUnion) Len() int {
	return len(d.parent)
}

// Find returns the root of x's set and points every node on the way directly at it.
func (d *DisjointUnion) Find(x int) (int, error) {
	if x < 0 || x >= len(d.parent) {
		return 0, fmt.Errorf("%w: %d not in [0,%d)", ErrIndexOutOfRange, x, len(d.parent))
	}

	root := x
	for d.parent[root] != -1 {
		root = d.parent[root]
	}
	for x != root {
		next := d.parent[x]
		d.parent[x] = root
		x = next
	}
	return root, nil
}

// Combine merges the sets of x and y. The smaller tree goes under the larger root;
// on equal sizes y's root goes under x's root.
func (d *DisjointUnion) Combine(x, y int) error {
	rx, err := d.Find(x)
	if err != nil {
		return err
	}
	ry, err := d.Find(y)
	if err != nil {
		return err
	}
	if rx == ry {
		return nil
	}

	if d.size[rx] < d.size[ry] {
		rx, ry = ry, rx
	}
	d.parent[ry] = rx
	d.size[rx] += d.size[ry]
	return nil
}

// Size returns the number of elements in x's set.
func (d *DisjointUnion) Size(x int) (int, error) {
	root, err := d.Find(x)
	if err != nil {
		return 0, err
	}
	return d.size[root], nil
}
