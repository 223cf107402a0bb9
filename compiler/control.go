package compiler

import (
	"github.com/wippyai/wasm-compiler/errors"
	"github.com/wippyai/wasm-compiler/ir"
)

type controlKind uint8

const (
	ctrlBlock controlKind = iota
	ctrlLoop
	ctrlIf
)

// controlFrame is one entry of the structured control stack, pushed per
// entered block/loop/if. The stack's depth always equals the current
// WebAssembly nesting depth; branch relative depths index it from the top.
type controlFrame struct {
	kind     controlKind
	begin    ir.BlockID // loop header; NoBlock otherwise
	elseBlk  ir.BlockID // if only; NoBlock otherwise
	end      ir.BlockID // created unplaced, placed at the matching end
	elseSeen bool
}

type controlStack struct {
	frames []controlFrame
}

func (cs *controlStack) depth() int {
	return len(cs.frames)
}

func (cs *controlStack) push(f controlFrame) {
	cs.frames = append(cs.frames, f)
}

func (cs *controlStack) pop() (controlFrame, bool) {
	if len(cs.frames) == 0 {
		return controlFrame{}, false
	}
	f := cs.frames[len(cs.frames)-1]
	cs.frames = cs.frames[:len(cs.frames)-1]
	return f, true
}

func (cs *controlStack) top() *controlFrame {
	if len(cs.frames) == 0 {
		return nil
	}
	return &cs.frames[len(cs.frames)-1]
}

// branchTarget resolves a relative depth to the block a branch jumps to:
// a loop's begin block (branching to a loop re-enters it) or a block/if's
// end block (branching to those exits them).
func (cs *controlStack) branchTarget(relativeDepth uint32) (ir.BlockID, error) {
	if int(relativeDepth) >= cs.depth() {
		return ir.NoBlock, errors.Internal("branch depth %d exceeds control nesting %d", relativeDepth, cs.depth())
	}
	f := cs.frames[cs.depth()-1-int(relativeDepth)]
	if f.kind == ctrlLoop {
		return f.begin, nil
	}
	return f.end, nil
}
