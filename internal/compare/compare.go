// Package compare classifies pairs of expressions as equal, prefix-related or unrelated.
package compare

import (
	"sync"
	"sync/atomic"

	"tslint/internal/ast"
)

// Verdict is the result of comparing A against B.
// Subset is directional: A is a prefix/projection of B.
type Verdict uint8

const (
	Invalid Verdict = iota
	Equal
	Subset
)

func (v Verdict) String() string {
	switch v {
	case Equal:
		return "Equal"
	case Subset:
		return "Subset"
	default:
		return "Invalid"
	}
}

type pair struct{ a, b ast.Node }

// Comparator memoises verdicts for one analysis run. It is safe for
// concurrent use; trees must not change while it is alive.
type Comparator struct {
	mu   sync.RWMutex
	memo map[pair]Verdict

	hits, misses atomic.Uint64
}

// New returns a comparator with an empty memo.
func New() *Comparator {
	return &Comparator{memo: make(map[pair]Verdict)}
}

// Stats reports memo hits and misses.
func (c *Comparator) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}

// Len returns the number of memoised pairs.
func (c *Comparator) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.memo)
}

// Compare classifies a against b.
func (c *Comparator) Compare(a, b ast.Node) Verdict {
	if !a.Valid() || !b.Valid() {
		if !a.Valid() && !b.Valid() {
			return Equal
		}
		return Invalid
	}
	if a == b {
		// один и тот же узел: одно и то же вычисление
		return Equal
	}

	key := pair{a, b}
	c.mu.RLock()
	v, ok := c.memo[key]
	c.mu.RUnlock()
	if ok {
		c.hits.Add(1)
		return v
	}
	c.misses.Add(1)

	v = c.classify(a, b)

	c.mu.Lock()
	c.memo[key] = v
	c.mu.Unlock()
	return v
}

func (c *Comparator) classify(a, b ast.Node) Verdict {
	if a.Kind() != b.Kind() {
		return c.differentKinds(a, b)
	}
	kind := a.Kind()
	switch {
	case kind.Is(ast.FlagFresh):
		return Invalid
	case kind.Is(ast.FlagKeyword):
		return Equal
	case kind.Is(ast.FlagLiteral):
		return when(a.Text() == b.Text())
	case kind.Is(ast.FlagTransparent):
		return c.Compare(a.Child("expression"), b.Child("expression"))
	}

	switch kind {
	case ast.KindCallExpression:
		return c.call(a, b)
	case ast.KindMemberExpression:
		return c.access(a, b, "property")
	case ast.KindSubscriptExpression:
		return c.access(a, b, "index")
	case ast.KindBinaryExpression:
		if a.Op() != b.Op() {
			return Invalid
		}
		return c.all(a.Child("left"), b.Child("left"), a.Child("right"), b.Child("right"))
	case ast.KindUnaryExpression:
		// прозрачен только typeof; `-a`, `!a` и прочие вычисляют новое значение
		if a.Op() != "typeof" || b.Op() != "typeof" {
			return Invalid
		}
		return c.Compare(a.Child("argument"), b.Child("argument"))
	case ast.KindTemplateString:
		return c.template(a, b)
	}
	return Invalid
}

// differentKinds applies the unwraps allowed across kinds: a non-null
// assertion on either side is transparent, and an access or call on the
// B side extends A when its receiver is related to A.
func (c *Comparator) differentKinds(a, b ast.Node) Verdict {
	if a.Kind() == ast.KindNonNullExpression {
		return c.Compare(a.Child("expression"), b)
	}
	if b.Kind() == ast.KindNonNullExpression {
		return c.Compare(a, b.Child("expression"))
	}
	if recv := receiver(b); recv.Valid() && c.Compare(a, recv) != Invalid {
		return Subset
	}
	return Invalid
}

// receiver returns the part of an access or call left of its final step.
func receiver(n ast.Node) ast.Node {
	switch n.Kind() {
	case ast.KindMemberExpression, ast.KindSubscriptExpression:
		return n.Child("object")
	case ast.KindCallExpression:
		return n.Child("function")
	}
	return ast.Node{}
}

func (c *Comparator) call(a, b ast.Node) Verdict {
	if c.Compare(a, b.Child("function")) != Invalid {
		return Subset
	}
	if c.Compare(a.Child("function"), b.Child("function")) != Equal {
		return Invalid
	}
	if !c.lists(a.Child("arguments").List("arguments"), b.Child("arguments").List("arguments")) {
		return Invalid
	}
	if !c.lists(a.Child("typeArguments").List("arguments"), b.Child("typeArguments").List("arguments")) {
		return Invalid
	}
	return Equal
}

func (c *Comparator) access(a, b ast.Node, key string) Verdict {
	if c.Compare(a, b.Child("object")) != Invalid {
		return Subset
	}
	return c.all(a.Child("object"), b.Child("object"), a.Child(key), b.Child(key))
}

func (c *Comparator) template(a, b ast.Node) Verdict {
	pa, pb := a.List("parts"), b.List("parts")
	if len(pa) != len(pb) {
		return Invalid
	}
	for i := range pa {
		if pa[i].Kind() != pb[i].Kind() {
			return Invalid
		}
		if pa[i].Kind() == ast.KindTemplateChunk {
			if pa[i].Text() != pb[i].Text() {
				return Invalid
			}
			continue
		}
		if c.Compare(pa[i].Child("expression"), pb[i].Child("expression")) != Equal {
			return Invalid
		}
	}
	return Equal
}

// all is Equal when every (a, b) pair is Equal.
func (c *Comparator) all(nodes ...ast.Node) Verdict {
	for i := 0; i+1 < len(nodes); i += 2 {
		if c.Compare(nodes[i], nodes[i+1]) != Equal {
			return Invalid
		}
	}
	return Equal
}

func (c *Comparator) lists(a, b []ast.Node) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if c.Compare(a[i], b[i]) != Equal {
			return false
		}
	}
	return true
}

func when(ok bool) Verdict {
	if ok {
		return Equal
	}
	return Invalid
}
