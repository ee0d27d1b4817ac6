package prin

// logicalBlock is a nestable formatting scope. Each block is exclusively
// owned by its position on the stream's stack until popped, so plain mutable
// fields are safe.
type logicalBlock struct {
	parent *logicalBlock

	startCol int // column where the block's content started
	indent   int // column to indent to after a break inside this block

	doneNL       bool // a newline at this block's level has broken
	intraBlockNL bool // a newline broke somewhere inside this block

	prefix        string
	perLinePrefix string // re-written after every break inside the block
	suffix        string
}

// ancestorOf reports whether b is a strict ancestor of child.
func (b *logicalBlock) ancestorOf(child *logicalBlock) bool {
	for lb := child.parent; lb != nil; lb = lb.parent {
		if lb == b {
			return true
		}
	}
	return false
}
