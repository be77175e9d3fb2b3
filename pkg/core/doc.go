// Package core defines the shared language of the playground.
//
// This package contains:
//   - Domain entities (SourceBundle, RenderError, RewriteResult, Account, Snippet)
//   - Service interfaces (AccountStore, SnippetStore, TokenStore, Store)
//   - Domain sentinel errors
//
// The Golden Rule: pkg/core imports ONLY the standard library.
// All other packages depend on core, not the reverse.
package core
