package bullet

import "sort"

type unionElement struct {
	id int
	sz int
}

// UnionFind is a disjoint set forest with union by size and path halving.
// After SortIslands the elements are grouped by root and sz holds the
// original index of each element.
type UnionFind struct {
	elements []unionElement
}

func (u *UnionFind) Reset(n int) {
	if cap(u.elements) < n {
		u.elements = make([]unionElement, n)
	}
	u.elements = u.elements[:n]
	for i := range u.elements {
		u.elements[i] = unionElement{id: i, sz: 1}
	}
}

func (u *UnionFind) NumElements() int {
	return len(u.elements)
}

func (u *UnionFind) IsRoot(x int) bool {
	return u.elements[x].id == x
}

func (u *UnionFind) Find(x int) int {
	for x != u.elements[x].id {
		u.elements[x].id = u.elements[u.elements[x].id].id
		x = u.elements[x].id
	}
	return x
}

func (u *UnionFind) Unite(p, q int) {
	i := u.Find(p)
	j := u.Find(q)
	if i == j {
		return
	}
	if u.elements[i].sz < u.elements[j].sz {
		i, j = j, i
	}
	u.elements[j].id = i
	u.elements[i].sz += u.elements[j].sz
}

// SortIslands flattens every element onto its root and sorts the elements
// by root. Elements of one island keep their original order.
func (u *UnionFind) SortIslands() {
	for i := range u.elements {
		u.elements[i].id = u.Find(i)
	}
	for i := range u.elements {
		u.elements[i].sz = i
	}
	sort.SliceStable(u.elements, func(a, b int) bool {
		return u.elements[a].id < u.elements[b].id
	})
}

func (u *UnionFind) element(i int) unionElement {
	return u.elements[i]
}
