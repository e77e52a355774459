package compiler

import "pmatch/pkg/ast"

// CountCaptures returns how many values n produces when it matches.
// Identifiers, binders and bare object keys capture one value each. A rest
// element yields one value per capture of its sub-pattern, or one for an
// identifier, and none for a wildcard.
func CountCaptures(n *ast.Node) int {
	switch n.Kind {
	case ast.KindIdentifier, ast.KindKey:
		return 1
	case ast.KindBinder:
		return 1 + countChildren(n)
	}
	return countChildren(n)
}

func countChildren(n *ast.Node) int {
	total := 0
	for _, c := range n.Children {
		total += CountCaptures(c)
	}
	return total
}
