package knowledge

import "github.com/kilianp07/batterycare/core/factory"

var retrieverRegistry = factory.NewRegistry[Retriever]()

// RegisterRetriever adds a retriever factory identified by name.
func RegisterRetriever(name string, f factory.Factory[Retriever]) error {
	return retrieverRegistry.Register(name, f)
}

// NewRetriever creates a Retriever from its module configuration. An empty
// type yields a NopRetriever.
func NewRetriever(cfg factory.ModuleConfig) (Retriever, error) {
	if cfg.Type == "" {
		return NopRetriever{}, nil
	}
	return retrieverRegistry.Create(cfg)
}

// RetrieverTypes lists the registered retriever names.
func RetrieverTypes() []string { return retrieverRegistry.Names() }
