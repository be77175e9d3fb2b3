package common

import (
	"github.com/devplayground/playground/internal/catalog"
)

// BuildCatalogTree turns catalog categories into sidebar nodes, keeping
// catalog order.
func BuildCatalogTree(categories []catalog.Category) []TreeNode {
	result := make([]TreeNode, 0, len(categories))
	for _, cat := range categories {
		node := TreeNode{
			Name:     cat.Title,
			Slug:     cat.Slug,
			Type:     "category",
			Children: make([]TreeNode, 0, len(cat.Entries)),
		}
		for _, e := range cat.Entries {
			node.Children = append(node.Children, TreeNode{
				Name: e.Title,
				Slug: e.Slug,
				Type: "entry",
			})
		}
		result = append(result, node)
	}
	return result
}

// LenStr returns the length of a TreeNode slice formatted like "(5)".
func LenStr(nodes []TreeNode) string {
	return "(" + Itoa(len(nodes)) + ")"
}
