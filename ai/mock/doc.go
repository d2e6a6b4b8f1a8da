// Package mock provides test double implementations of AI service interfaces.
//
// The mocks allow tests to run without external AI services and make
// failures easy to script:
//
//	gen := mock.NewMockGenerator()
//	gen.GenerateFunc = func(ctx context.Context, req ai.GenerationRequest) (*ai.Summary, error) {
//	    return nil, fmt.Errorf("%w: bad json", ai.ErrValidation)
//	}
//
// # Default Behavior
//
//   - MockGenerator: returns a schema-valid summary built from the request
//   - MockEmbedder: returns deterministic unit vectors based on text hash
//   - MockProvider: aggregates both
//
// All mocks are safe for concurrent use and record their calls.
package mock
