package entities

// ResolvedPrompt is a template string with named placeholders ({{survey}},
// and for revisions {{assessment}} and {{feedback}}) plus a provenance flag.
// FromRegistry is observability-only: behavior is identical either way.
type ResolvedPrompt struct {
	Template     string
	FromRegistry bool
}
