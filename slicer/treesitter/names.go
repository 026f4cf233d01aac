package treesitter

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// nameCollector records the names a module-level statement binds and reads.
// Names bound inside functions, classes, lambdas and comprehensions stay local and are neither defs nor uses.
type nameCollector struct {
	src  []byte
	defs []string
	uses []string
	seen map[string]bool
}

func newNameCollector(src []byte) *nameCollector {
	return &nameCollector{src: src, seen: make(map[string]bool)}
}

func (c *nameCollector) addDef(name string) {
	if !c.seen["d:"+name] {
		c.seen["d:"+name] = true
		c.defs = append(c.defs, name)
	}
}

func (c *nameCollector) addUse(name string) {
	if !c.seen["u:"+name] {
		c.seen["u:"+name] = true
		c.uses = append(c.uses, name)
	}
}

func (c *nameCollector) content(n *sitter.Node) string {
	return n.Content(c.src)
}

// visit walks n; locals is nil at module scope.
func (c *nameCollector) visit(n *sitter.Node, locals map[string]bool) {
	if n == nil {
		return
	}

	switch n.Type() {
	case "identifier":
		name := c.content(n)
		if !locals[name] {
			c.addUse(name)
		}

	case "comment", "string", "integer", "float", "true", "false", "none":

	case "function_definition":
		if name := n.ChildByFieldName("name"); name != nil && locals == nil {
			c.addDef(c.content(name))
		}
		inner := copyScope(locals)
		c.parameters(n.ChildByFieldName("parameters"), locals, inner)
		body := n.ChildByFieldName("body")
		collectLocalTargets(body, c.src, inner)
		c.visit(body, inner)

	case "lambda":
		inner := copyScope(locals)
		c.parameters(n.ChildByFieldName("parameters"), locals, inner)
		c.visit(n.ChildByFieldName("body"), inner)

	case "class_definition":
		if name := n.ChildByFieldName("name"); name != nil && locals == nil {
			c.addDef(c.content(name))
		}
		c.visit(n.ChildByFieldName("superclasses"), locals)
		inner := copyScope(locals)
		body := n.ChildByFieldName("body")
		collectLocalTargets(body, c.src, inner)
		c.visit(body, inner)

	case "list_comprehension", "set_comprehension", "dictionary_comprehension", "generator_expression":
		inner := copyScope(locals)
		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(i)
			if child.Type() == "for_in_clause" {
				collectPatternNames(child.ChildByFieldName("left"), c.src, inner)
			}
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(i)
			if child.Type() == "for_in_clause" {
				c.visit(child.ChildByFieldName("right"), inner)
				continue
			}
			c.visit(child, inner)
		}

	case "assignment":
		c.bind(n.ChildByFieldName("left"), locals, false)
		c.visit(n.ChildByFieldName("right"), locals)

	case "augmented_assignment":
		c.bind(n.ChildByFieldName("left"), locals, true)
		c.visit(n.ChildByFieldName("right"), locals)

	case "for_statement":
		c.bind(n.ChildByFieldName("left"), locals, false)
		c.visit(n.ChildByFieldName("right"), locals)
		c.visit(n.ChildByFieldName("body"), locals)
		c.visit(n.ChildByFieldName("alternative"), locals)

	case "as_pattern":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(i)
			if child.Type() == "as_pattern_target" {
				c.bind(child, locals, false)
				continue
			}
			c.visit(child, locals)
		}

	case "named_expression":
		c.bind(n.ChildByFieldName("name"), locals, false)
		c.visit(n.ChildByFieldName("value"), locals)

	case "import_statement", "import_from_statement":
		c.imports(n, locals)

	case "keyword_argument":
		c.visit(n.ChildByFieldName("value"), locals)

	case "attribute":
		c.visit(n.ChildByFieldName("object"), locals)

	case "global_statement", "nonlocal_statement":

	default:
		for i := 0; i < int(n.NamedChildCount()); i++ {
			c.visit(n.NamedChild(i), locals)
		}
	}
}

// bind records the names written by an assignment target. Attribute and subscript targets mutate
// their base object, so the base is both read and written.
func (c *nameCollector) bind(target *sitter.Node, locals map[string]bool, alsoUse bool) {
	if target == nil {
		return
	}

	switch target.Type() {
	case "identifier":
		name := c.content(target)
		if locals != nil {
			// already a local of the enclosing function
			return
		}
		c.addDef(name)
		if alsoUse {
			c.addUse(name)
		}

	case "attribute", "subscript":
		c.visit(target, locals)
		if base := baseIdentifier(target); base != nil && locals == nil {
			c.addDef(c.content(base))
		}

	default:
		for i := 0; i < int(target.NamedChildCount()); i++ {
			c.bind(target.NamedChild(i), locals, alsoUse)
		}
	}
}

func (c *nameCollector) imports(n *sitter.Node, locals map[string]bool) {
	module := n.ChildByFieldName("module_name")
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if module != nil && child.StartByte() == module.StartByte() && child.EndByte() == module.EndByte() {
			continue
		}

		var bound string
		switch child.Type() {
		case "aliased_import":
			if alias := child.ChildByFieldName("alias"); alias != nil {
				bound = c.content(alias)
			}
		case "dotted_name":
			if n.Type() == "import_statement" {
				// "import a.b" binds "a"
				if first := child.NamedChild(0); first != nil {
					bound = c.content(first)
				}
			} else if last := child.NamedChild(int(child.NamedChildCount()) - 1); last != nil {
				bound = c.content(last)
			}
		}

		if bound != "" && locals == nil {
			c.addDef(bound)
		}
	}
}

// parameters adds parameter names to inner and visits default values in the enclosing scope.
func (c *nameCollector) parameters(params *sitter.Node, outer, inner map[string]bool) {
	if params == nil {
		return
	}
	for i := 0; i < int(params.NamedChildCount()); i++ {
		param := params.NamedChild(i)
		switch param.Type() {
		case "identifier":
			inner[c.content(param)] = true
		case "typed_parameter":
			if name := param.NamedChild(0); name != nil {
				collectPatternNames(name, c.src, inner)
			}
		case "default_parameter", "typed_default_parameter":
			if name := param.ChildByFieldName("name"); name != nil {
				inner[c.content(name)] = true
			}
			c.visit(param.ChildByFieldName("value"), outer)
		default:
			collectPatternNames(param, c.src, inner)
		}
	}
}

// collectLocalTargets adds every name assigned directly inside a function or class body.
func collectLocalTargets(n *sitter.Node, src []byte, scope map[string]bool) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "function_definition", "class_definition":
		if name := n.ChildByFieldName("name"); name != nil {
			scope[name.Content(src)] = true
		}
		return
	case "lambda", "list_comprehension", "set_comprehension", "dictionary_comprehension", "generator_expression":
		return
	case "assignment", "augmented_assignment", "for_statement":
		collectPatternNames(n.ChildByFieldName("left"), src, scope)
	case "as_pattern_target":
		collectPatternNames(n, src, scope)
	case "named_expression":
		collectPatternNames(n.ChildByFieldName("name"), src, scope)
	case "import_statement", "import_from_statement":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(i)
			if alias := child.ChildByFieldName("alias"); alias != nil {
				scope[alias.Content(src)] = true
			} else if child.Type() == "dotted_name" && child.NamedChildCount() > 0 {
				scope[child.NamedChild(0).Content(src)] = true
			}
		}
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		collectLocalTargets(n.NamedChild(i), src, scope)
	}
}

// collectPatternNames adds the plain identifiers of a target pattern; attribute and subscript targets bind nothing new.
func collectPatternNames(n *sitter.Node, src []byte, scope map[string]bool) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "identifier":
		scope[n.Content(src)] = true
	case "attribute", "subscript":
		return
	default:
		for i := 0; i < int(n.NamedChildCount()); i++ {
			collectPatternNames(n.NamedChild(i), src, scope)
		}
	}
}

func baseIdentifier(n *sitter.Node) *sitter.Node {
	for n != nil {
		switch n.Type() {
		case "identifier":
			return n
		case "attribute":
			n = n.ChildByFieldName("object")
		case "subscript":
			n = n.ChildByFieldName("value")
		default:
			return nil
		}
	}
	return nil
}

func copyScope(scope map[string]bool) map[string]bool {
	inner := make(map[string]bool, len(scope))
	for name := range scope {
		inner[name] = true
	}
	return inner
}
