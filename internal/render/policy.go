package render

// Policy selects which non-matched nodes are fully rendered during
// filtered reconstruction.
type Policy int

const (
	// Direct expands only the matched nodes; enclosing sections are
	// traversed but contribute no text of their own.
	Direct Policy = iota
	// DirectAncestors additionally emits the matched nodes' ancestor
	// chain (enclosing heading lines) for context.
	DirectAncestors
	// DirectAncestorsSiblings additionally expands siblings of each
	// matched node within Options.SiblingWindow positions.
	DirectAncestorsSiblings
)

// Options controls filtered rendering.
type Options struct {
	Policy Policy
	// SiblingWindow is the number of siblings expanded before and after
	// each match under DirectAncestorsSiblings.
	SiblingWindow int
	// ShowStructure emits every heading line regardless of policy, so
	// the document outline survives even when content is collapsed.
	ShowStructure bool
}
