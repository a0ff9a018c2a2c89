package out

import "context"

// Completer invokes the external text-generation model with a single prompt
// and returns the raw response text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
