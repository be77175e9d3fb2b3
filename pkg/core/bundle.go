package core

import "strings"

// SourceBundle is the three-string unit under edit.
// On the HTTP surface the fields travel as html, css and js.
type SourceBundle struct {
	Markup string `json:"html"`
	Style  string `json:"css"`
	Script string `json:"js"`
}

// IsEmpty reports whether all three sources are empty.
func (b SourceBundle) IsEmpty() bool {
	return b.Markup == "" && b.Style == "" && b.Script == ""
}

// Languages returns the non-empty source languages in display order,
// e.g. ["HTML", "CSS"].
func (b SourceBundle) Languages() []string {
	var langs []string
	if b.Markup != "" {
		langs = append(langs, "HTML")
	}
	if b.Style != "" {
		langs = append(langs, "CSS")
	}
	if b.Script != "" {
		langs = append(langs, "JavaScript")
	}
	return langs
}

// RenderError is a runtime error raised by a rendered script.
// It is produced by the preview renderer and consumed immediately.
type RenderError struct {
	Message string `json:"message"`
}

// Error implements error so a RenderError can be logged or wrapped.
func (e RenderError) Error() string {
	return e.Message
}

// RewriteRequest asks the rewrite mediator to edit a bundle.
type RewriteRequest struct {
	Bundle      SourceBundle
	Instruction string
}

// TrimmedInstruction returns the trimmed instruction and whether it is usable.
func (r RewriteRequest) TrimmedInstruction() (string, bool) {
	s := strings.TrimSpace(r.Instruction)
	return s, s != ""
}

// RewriteStatus is the terminal state of a rewrite request.
type RewriteStatus string

// Rewrite status constants.
const (
	RewriteApplied   RewriteStatus = "applied"
	RewriteRejected  RewriteStatus = "rejected"
	RewriteFailed    RewriteStatus = "failed"
	RewriteCancelled RewriteStatus = "cancelled"
)

// Failure reasons reported by the rewrite mediator.
const (
	ReasonInstructionRequired = "instruction required"
	ReasonGenerationFailed    = "generation failed"
	ReasonInvalidFormat       = "invalid response format"
	ReasonInvalidShape        = "invalid response shape"
	ReasonCancelled           = "cancelled"
)

// RewriteResult is Success{Bundle} when Status is RewriteApplied and
// Failure{Reason} otherwise. Bundle is the zero value on failure.
type RewriteResult struct {
	Status RewriteStatus
	Bundle SourceBundle
	Reason string
}

// RewriteSuccess builds a successful result.
func RewriteSuccess(b SourceBundle) RewriteResult {
	return RewriteResult{Status: RewriteApplied, Bundle: b}
}

// RewriteFailure builds a failed result with the given status and reason.
func RewriteFailure(status RewriteStatus, reason string) RewriteResult {
	return RewriteResult{Status: status, Reason: reason}
}

// OK reports whether the result carries a replacement bundle.
func (r RewriteResult) OK() bool {
	return r.Status == RewriteApplied
}
