package domain

import "context"

// Provider is an upstream completion service. Complete issues exactly one
// network call and returns the raw, undecoded response body; shape probing is
// the caller's job because the payload layout varies across providers and
// across historical versions of the same provider. Providers never retry.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req CompletionRequest) ([]byte, error)
	Healthy(ctx context.Context) error
}

// CompletionRequest carries the per-turn prompt material. The model
// identifier and sampling parameters are fixed per deployment and belong to
// the provider, not to the request.
type CompletionRequest struct {
	Instruction string
	UserText    string
}
