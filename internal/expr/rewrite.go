package expr

// Rewriter is implemented by extension nodes that have children, so that
// Transform can descend into them.
type Rewriter interface {
	Node
	// Rewrite returns the node rebuilt over f applied to each child.
	Rewrite(f func(Node) Node) Node
}

// Transform walks n top-down. When visit returns ok, its result replaces
// the node and the walk does not descend into it; otherwise children are
// transformed and the node is rebuilt only if one of them changed.
func Transform(n Node, visit func(Node) (Node, bool)) Node {
	if n == nil {
		return nil
	}
	if r, ok := visit(n); ok {
		return r
	}
	rec := func(c Node) Node { return Transform(c, visit) }
	switch n := n.(type) {
	case *Constant, *Parameter, *ProjectionBinding:
		return n
	case *Member:
		return n.Update(rec(n.Operand))
	case *Call:
		obj := rec(n.Object)
		args, changed := transformAll(n.Args, rec)
		if !changed && obj == n.Object {
			return n
		}
		return n.Update(obj, args)
	case *Binary:
		return n.Update(rec(n.Left), rec(n.Right))
	case *Unary:
		return n.Update(rec(n.Operand))
	case *Conditional:
		t, a, b := rec(n.Test), rec(n.IfTrue), rec(n.IfFalse)
		if t == n.Test && a == n.IfTrue && b == n.IfFalse {
			return n
		}
		return &Conditional{Test: t, IfTrue: a, IfFalse: b, typ: n.typ}
	case *New:
		args, changed := transformAll(n.Args, rec)
		if !changed {
			return n
		}
		return &New{Members: n.Members, Args: args, typ: n.typ}
	case *Lambda:
		body := rec(n.Body)
		if body == n.Body {
			return n
		}
		return &Lambda{Params: n.Params, Body: body}
	case *EntityShaper:
		return n.Update(rec(n.ValueBuffer))
	case Rewriter:
		return n.Rewrite(rec)
	}
	return n
}

func transformAll(nodes []Node, f func(Node) Node) ([]Node, bool) {
	var out []Node
	for i, c := range nodes {
		r := f(c)
		if r != c && out == nil {
			out = make([]Node, len(nodes))
			copy(out, nodes[:i])
		}
		if out != nil {
			out[i] = r
		}
	}
	if out == nil {
		return nodes, false
	}
	return out, true
}

// Replace returns n with every occurrence of from replaced by to.
func Replace(n, from, to Node) Node {
	return Transform(n, func(c Node) (Node, bool) {
		if c == from {
			return to, true
		}
		return nil, false
	})
}

// Inline substitutes arg for the single parameter of l and returns the
// resulting body.
func Inline(l *Lambda, arg Node) Node {
	return Replace(l.Body, l.Params[0], arg)
}
