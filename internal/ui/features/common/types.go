// Package common provides shared types and utilities for UI features.
package common

import "github.com/devplayground/playground/pkg/core"

// TreeNode is a node in the catalog sidebar.
type TreeNode struct {
	Name     string
	Slug     string
	Type     string // "category" or "entry"
	Children []TreeNode
}

// SidebarData holds what the sidebar needs to render.
type SidebarData struct {
	CatalogTree   []TreeNode
	CurrentSlug   string
	Authenticated bool
}

// Signals are the playground page's datastar signals.
type Signals struct {
	Markup      string `json:"html"`
	Style       string `json:"css"`
	Script      string `json:"js"`
	Instruction string `json:"instruction"`
	Surface     string `json:"surface,omitempty"`
	Version     uint64 `json:"version,omitempty"`
}

// Bundle returns the sources carried by the signals.
func (s Signals) Bundle() core.SourceBundle {
	return core.SourceBundle{Markup: s.Markup, Style: s.Style, Script: s.Script}
}

// SignalsFor returns the signals that load bundle at version into the
// editors and clear the instruction.
func SignalsFor(bundle core.SourceBundle, version uint64) Signals {
	return Signals{
		Markup:  bundle.Markup,
		Style:   bundle.Style,
		Script:  bundle.Script,
		Version: version,
	}
}
