package keydir

import "github.com/google/btree"

const DefaultBTreeDegree = 32

type item struct {
	key   string
	entry Entry
}

func lessItem(a, b item) bool {
	return a.key < b.key
}

// Ordered is a KeyDir kept in a B-tree so keys can be scanned in order.
type Ordered struct {
	tree *btree.BTreeG[item]
}

func NewOrdered(degree int) *Ordered {
	if degree < 2 {
		degree = DefaultBTreeDegree
	}
	return &Ordered{tree: btree.NewG[item](degree, lessItem)}
}

func (o *Ordered) Upsert(key string, e Entry) {
	o.tree.ReplaceOrInsert(item{key: key, entry: e})
}

func (o *Ordered) Remove(key string) bool {
	_, ok := o.tree.Delete(item{key: key})
	return ok
}

func (o *Ordered) Lookup(key string) (Entry, bool) {
	it, ok := o.tree.Get(item{key: key})
	return it.entry, ok
}

func (o *Ordered) Len() int {
	return o.tree.Len()
}

func (o *Ordered) Ascend(fn func(key string, e Entry) bool) {
	o.tree.Ascend(func(it item) bool {
		return fn(it.key, it.entry)
	})
}

func (o *Ordered) AscendRange(start, end string, fn func(key string, e Entry) bool) {
	visit := func(it item) bool {
		return fn(it.key, it.entry)
	}

	if end == "" {
		o.tree.AscendGreaterOrEqual(item{key: start}, visit)
		return
	}
	o.tree.AscendRange(item{key: start}, item{key: end}, visit)
}
