package pipeline

// Pipeline represents a sequence of processing stages.
type Pipeline struct {
	processors []Processor
}

func New(processors ...Processor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Run executes the pipeline. A stage that finds errors already recorded
// is expected to pass the context through untouched, so the first
// failure is the one reported.
func (p *Pipeline) Run(initialCtx *PipelineContext) *PipelineContext {
	ctx := initialCtx
	for _, processor := range p.processors {
		ctx = processor.Process(ctx)
	}
	return ctx
}

// Default is scan, bind, evaluate.
func Default() *Pipeline {
	return New(&ScanProcessor{}, &BindProcessor{}, &EvaluatorProcessor{})
}
