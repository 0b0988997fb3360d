// Package pipeline orchestrates the seven compiler passes over a single
// *ir.Program, in the fixed order T, L, D, I, V, M, TC. It mirrors the
// teacher's semantic.PassManager: a short, linear driver that stops at
// the first error and otherwise threads one stage's output into the
// next, rather than a generic plugin registry — the pass order here is
// fixed by the language's own design, not configurable per run beyond
// enabling or skipping a stage entirely.
package pipeline

import (
	"github.com/kestrelsoft/corec/internal/config"
	"github.com/kestrelsoft/corec/internal/ir"
	"github.com/kestrelsoft/corec/internal/passes/closure"
	"github.com/kestrelsoft/corec/internal/passes/deadcode"
	"github.com/kestrelsoft/corec/internal/passes/elide"
	"github.com/kestrelsoft/corec/internal/passes/inline"
	"github.com/kestrelsoft/corec/internal/passes/memory"
	"github.com/kestrelsoft/corec/internal/passes/tailcall"
	"github.com/kestrelsoft/corec/internal/passes/typecheck"
)

// StageName identifies one of the seven passes, used by cmd/corec's
// "dump --stage=" flag to pick an intermediate program to render.
type StageName string

const (
	StageInput     StageName = "input"
	StageTypecheck StageName = "typecheck"
	StageClosure   StageName = "closure"
	StageDeadCode  StageName = "deadcode"
	StageInline    StageName = "inline"
	StageElide     StageName = "elide"
	StageMemory    StageName = "memory"
	StageTailCall  StageName = "tailcall"
)

// Ordered lists every stage in pipeline order, including the
// pass-through input stage, for CLI flag validation and help text.
var Ordered = []StageName{
	StageInput, StageTypecheck, StageClosure, StageDeadCode,
	StageInline, StageElide, StageMemory, StageTailCall,
}

// Result is the outcome of a full pipeline run: the final program, the
// tail-call side table Pass TC produced (nil if Pass TC was skipped),
// and every intermediate program keyed by stage name so a caller can
// inspect what any one pass did.
type Result struct {
	Final    *ir.Program
	TailCall *tailcall.Result
	Stages   map[StageName]*ir.Program
}

// Run executes the enabled stages of cfg over src in order, stopping at
// the first error. importer backs the import intrinsic during Pass T;
// pass nil to reject every import.
func Run(src *ir.Program, cfg config.PipelineConfig, importer typecheck.Importer) (*Result, error) {
	res := &Result{Stages: map[StageName]*ir.Program{StageInput: src}}
	cur := src

	if cfg.Typecheck {
		out, err := typecheck.Run(cur, importer)
		if err != nil {
			return nil, err
		}
		cur = out
	}
	res.Stages[StageTypecheck] = cur

	if cfg.Closure {
		out, err := closure.Run(cur)
		if err != nil {
			return nil, err
		}
		cur = out
	}
	res.Stages[StageClosure] = cur

	if cfg.DeadCode {
		out, err := deadcode.Run(cur)
		if err != nil {
			return nil, err
		}
		cur = out
	}
	res.Stages[StageDeadCode] = cur

	if cfg.Inline {
		threshold := cfg.InlineSizeThreshold
		if threshold <= 0 {
			threshold = inline.SizeThreshold
		}
		out, err := inline.Run(cur, threshold)
		if err != nil {
			return nil, err
		}
		cur = out
	}
	res.Stages[StageInline] = cur

	if cfg.Elide {
		out, err := elide.Run(cur)
		if err != nil {
			return nil, err
		}
		cur = out
	}
	res.Stages[StageElide] = cur

	if cfg.Memory {
		out, err := memory.Run(cur)
		if err != nil {
			return nil, err
		}
		cur = out
	}
	res.Stages[StageMemory] = cur

	if cfg.TailCall {
		out, tc, err := tailcall.Run(cur)
		if err != nil {
			return nil, err
		}
		cur = out
		res.TailCall = tc
	}
	res.Stages[StageTailCall] = cur

	res.Final = cur
	return res, nil
}
