package tools

import "github.com/hession/datakit/internal/registry"

// RegisterAll registers every built-in tool. Called once at startup, before
// any command dispatch.
func RegisterAll(reg *registry.Registry) error {
	for _, t := range []*registry.Tool{
		NewSampleDataset(),
		NewSplitDS(),
	} {
		if err := reg.Register(t); err != nil {
			return err
		}
	}
	return nil
}
