package role

import (
	"github.com/google/uuid"

	"github.com/nikhilbhutani/staffdesk/internal/models"
)

// BuildTree groups permissions under their parents, keeping input order at
// each level. Children whose parent is absent are promoted to roots.
func BuildTree(perms []models.Permission) []*models.PermissionNode {
	nodes := make(map[uuid.UUID]*models.PermissionNode, len(perms))
	for _, p := range perms {
		nodes[p.ID] = &models.PermissionNode{Permission: p, Children: []*models.PermissionNode{}}
	}

	roots := []*models.PermissionNode{}
	for _, p := range perms {
		n := nodes[p.ID]
		if p.ParentID != nil {
			if parent, ok := nodes[*p.ParentID]; ok {
				parent.Children = append(parent.Children, n)
				continue
			}
		}
		roots = append(roots, n)
	}
	return roots
}

// markEnabled copies tree with Enabled set from granted. A parent is enabled
// when it is granted itself or any of its children is.
func markEnabled(tree []*models.PermissionNode, granted map[uuid.UUID]bool) []*models.PermissionNode {
	out := make([]*models.PermissionNode, len(tree))
	for i, n := range tree {
		c := &models.PermissionNode{Permission: n.Permission}
		c.Children = markEnabled(n.Children, granted)
		c.Enabled = granted[n.ID]
		for _, child := range c.Children {
			c.Enabled = c.Enabled || child.Enabled
		}
		out[i] = c
	}
	return out
}
