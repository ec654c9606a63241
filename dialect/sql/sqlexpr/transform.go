package sqlexpr

// Transform maps one expression node to another. It is applied to children
// of composite nodes during rewriting.
type Transform func(Expr) Expr

// Transformer is implemented by every composite node. TransformChildren
// returns a new node of the same kind with every direct child replaced by
// the transform's output on that child. Leaf nodes (Ident, Literal, and
// operands over plain values) are opaque to generic rewriting.
type Transformer interface {
	TransformChildren(Transform) Expr
}

// Rewrite applies t to x bottom-up: children are rewritten first, then t is
// applied to the node itself. Nodes that are not Transformers are passed to
// t directly. Rewriting with the identity transform yields a structurally
// equal tree.
func Rewrite(x Expr, t Transform) Expr {
	if c, ok := x.(Transformer); ok {
		x = c.TransformChildren(func(child Expr) Expr {
			return Rewrite(child, t)
		})
	}
	return t(x)
}

// Identity is the no-op transform.
func Identity(x Expr) Expr { return x }

func transformAll(xs []Expr, t Transform) []Expr {
	out := make([]Expr, len(xs))
	for i, x := range xs {
		out[i] = t(x)
	}
	return out
}
