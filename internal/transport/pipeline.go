package transport

import (
	"net/http"
)

// RequestStage transforms an outgoing call. Stages must not modify the
// request they receive; they return a clone when they change anything.
type RequestStage func(*http.Request) *http.Request

// Next sends a call through the complete pipeline again.
type Next func(*http.Request) (*http.Response, error)

// ResponseStage inspects the response to req. It returns the response
// (possibly a replacement obtained through replay) or an error.
type ResponseStage func(req *http.Request, resp *http.Response, replay Next) (*http.Response, error)

// Pipeline is an http.RoundTripper running request stages, the base
// transport, then response stages, in order.
type Pipeline struct {
	base           http.RoundTripper
	requestStages  []RequestStage
	responseStages []ResponseStage
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithRequestStages appends request stages.
func WithRequestStages(stages ...RequestStage) PipelineOption {
	return func(p *Pipeline) {
		p.requestStages = append(p.requestStages, stages...)
	}
}

// WithResponseStages appends response stages.
func WithResponseStages(stages ...ResponseStage) PipelineOption {
	return func(p *Pipeline) {
		p.responseStages = append(p.responseStages, stages...)
	}
}

// NewPipeline creates a pipeline on top of base. A nil base selects
// http.DefaultTransport.
func NewPipeline(base http.RoundTripper, opts ...PipelineOption) *Pipeline {
	if base == nil {
		base = http.DefaultTransport
	}
	p := &Pipeline{base: base}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RoundTrip implements http.RoundTripper.
func (p *Pipeline) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req
	for _, stage := range p.requestStages {
		out = stage(out)
	}

	resp, err := p.base.RoundTrip(out)
	if err != nil {
		return nil, err
	}

	for _, stage := range p.responseStages {
		resp, err = stage(out, resp, p.RoundTrip)
		if err != nil {
			return nil, err
		}
	}
	return resp, nil
}
