package graph

import (
	"fmt"

	"github.com/starford/ansuz/internal/parser"
)

// nodeSpec is a planned node. parent indexes into buildContext.specs;
// rootParent marks children of the doc root.
type nodeSpec struct {
	kind   parser.Kind
	level  int
	start  int
	end    int
	parent int
}

const rootParent = -1

// buildContext carries the hierarchy state threaded through one build: the
// open-heading stack and the planned node list. It is a per-call value, so
// concurrent builds of different documents never share state.
type buildContext struct {
	specs   []nodeSpec
	stack   []int // indexes of open headings, outermost first
	prevEnd int   // end of the last accepted block
}

// addBlock plans the node for one parsed block and maintains the heading
// stack. Blocks must arrive in document order with non-overlapping spans;
// anything else is a parser bug reported as a malformed span.
func (bc *buildContext) addBlock(b parser.Block) error {
	if b.Start < bc.prevEnd || b.End < b.Start {
		return fmt.Errorf("block %s [%d,%d) overlaps previous end %d", b.Kind, b.Start, b.End, bc.prevEnd)
	}

	if b.Kind == parser.KindHeading {
		// Close every section at the same or a deeper level. A heading
		// node spans its whole section, so the popped heading's extent
		// ends where the last block ended.
		for len(bc.stack) > 0 && bc.specs[bc.top()].level >= b.Level {
			bc.closeTop()
		}
		spec := nodeSpec{
			kind:   b.Kind,
			level:  b.Level,
			start:  b.Start,
			end:    b.End, // provisional; extended when the section closes
			parent: bc.parent(),
		}
		bc.specs = append(bc.specs, spec)
		bc.stack = append(bc.stack, len(bc.specs)-1)
	} else {
		bc.specs = append(bc.specs, nodeSpec{
			kind:   b.Kind,
			start:  b.Start,
			end:    b.End,
			parent: bc.parent(),
		})
	}

	bc.prevEnd = b.End
	return nil
}

// finish closes all still-open sections at end of document.
func (bc *buildContext) finish() {
	for len(bc.stack) > 0 {
		bc.closeTop()
	}
}

func (bc *buildContext) parent() int {
	if len(bc.stack) == 0 {
		return rootParent
	}
	return bc.top()
}

func (bc *buildContext) top() int {
	return bc.stack[len(bc.stack)-1]
}

func (bc *buildContext) closeTop() {
	idx := bc.top()
	bc.stack = bc.stack[:len(bc.stack)-1]
	if bc.prevEnd > bc.specs[idx].end {
		bc.specs[idx].end = bc.prevEnd
	}
}
