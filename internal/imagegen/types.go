package imagegen

import "context"

// Result is one generated image. Providers return either inline bytes or a
// remotely hosted URL; callers must handle both. When both are present, Data
// takes precedence.
type Result struct {
	Data []byte
	URL  string
}

// Generator is the contract implemented by image providers.
type Generator interface {
	Generate(ctx context.Context, prompt, size, quality string) (Result, error)
}
