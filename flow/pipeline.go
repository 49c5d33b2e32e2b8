package flow

import (
	"context"

	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/stream"
)

// Step is one labeled stage of a pipeline.
type Step struct {
	// Label is a diagnostic name. Optional, and not required to be unique.
	Label string
	// Op is the operation the step applies.
	Op Operation
}

// Name returns the step's diagnostic name: the label when set, otherwise
// the operation's name.
func (s Step) Name() string {
	if s.Label != "" {
		return s.Label
	}
	return s.Op.Name()
}

// Pipeline is an immutable ordered sequence of labeled steps. Append
// returns a new value and never mutates the receiver, so pipelines can be
// shared, extended in branches, and invoked concurrently. A Pipeline is
// itself an Operation and nests as a step of another pipeline.
type Pipeline struct {
	name  string
	steps []Step
}

// New creates an empty pipeline. Invoking it yields the input unchanged.
func New() *Pipeline {
	return &Pipeline{}
}

// Named creates an empty pipeline with a diagnostic name.
func Named(name string) *Pipeline {
	return &Pipeline{name: name}
}

// Name implements Operation.
func (p *Pipeline) Name() string {
	if p.name != "" {
		return p.name
	}
	return "pipeline"
}

// Append returns a new pipeline with a step added after the existing ones.
// The label is for diagnostics only; pass "" to use the operation's name.
func (p *Pipeline) Append(label string, op Operation) *Pipeline {
	steps := make([]Step, len(p.steps), len(p.steps)+1)
	copy(steps, p.steps)
	steps = append(steps, Step{Label: label, Op: op})
	return &Pipeline{name: p.name, steps: steps}
}

// Steps returns a copy of the step sequence.
func (p *Pipeline) Steps() []Step {
	steps := make([]Step, len(p.steps))
	copy(steps, p.steps)
	return steps
}

// Len returns the number of steps.
func (p *Pipeline) Len() int {
	return len(p.steps)
}

// Apply implements Operation: the pipeline folds the input through its
// steps with empty execution options.
func (p *Pipeline) Apply(ctx context.Context, in stream.Stream) (stream.Stream, error) {
	return p.fold(ctx, in, Options{})
}

// ApplyWith implements OptionedOperation: a nested pipeline forwards the
// invoke's options to its own steps.
func (p *Pipeline) ApplyWith(ctx context.Context, in stream.Stream, opts Options) (stream.Stream, error) {
	return p.fold(ctx, in, opts)
}

// Run invokes the pipeline on in and returns the output stream. The fold
// performs no element work: work happens when the returned stream is
// pulled, or when a step internally forces iteration (sort, counter,
// reductions). The caller owns the returned stream and must exhaust or
// close it.
func (p *Pipeline) Run(ctx context.Context, in stream.Stream, opts ...Option) (stream.Stream, error) {
	o := resolveOptions(opts)
	if o.Log != nil {
		o.Log.Debug("pipeline invoked", map[string]interface{}{
			logger.FieldPipeline: p.Name(),
			logger.FieldRun:      o.runID,
			"steps":              len(p.steps),
		})
	}
	return p.fold(ctx, in, o)
}

func (p *Pipeline) fold(ctx context.Context, in stream.Stream, o Options) (stream.Stream, error) {
	data := in
	for _, st := range p.steps {
		out, err := applyStep(ctx, st.Op, data, o)
		if err != nil {
			return nil, err
		}
		if o.Log != nil {
			o.Log.Debug("step bound", map[string]interface{}{
				logger.FieldPipeline: p.Name(),
				logger.FieldStep:     st.Name(),
				logger.FieldOp:       st.Op.Name(),
				logger.FieldRun:      o.runID,
			})
		}
		data = out
	}
	return data, nil
}
