package svgnorm

import "github.com/benoitkugler/svgtree/svgtree"

// simplify removes the groups which have no effect on the
// rendering: empty groups, and groups without compositing
// effect, whose children are moved up to the parent.
// Since transforms are absolute, no transform has to be updated.
func (c *converter) simplify(n *svgtree.Node) {
	var children []*svgtree.Node
	for _, child := range n.Children {
		group, isGroup := child.Kind.(*svgtree.Group)
		if !isGroup {
			children = append(children, child)
			continue
		}
		c.simplify(child)
		switch {
		case len(child.Children) == 0:
			// nothing to render
		case group.IsCompositing():
			children = append(children, child)
		case child.ID != "" && c.opts.KeepNamedGroups && !c.neutralGroups[child]:
			children = append(children, child)
		default:
			if len(child.Children) == 1 && child.Children[0].ID == "" {
				child.Children[0].ID = child.ID
			}
			children = append(children, child.Children...)
		}
	}
	n.Children = children
}
