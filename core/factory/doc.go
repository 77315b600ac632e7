// Package factory provides a small generic registry used to instantiate
// pluggable modules (metrics sinks, knowledge retrievers, notification
// deliverers) from configuration. Modules are defined by a type string and a
// map of raw settings. Factories decode the settings into typed structs and
// return the concrete implementation.
//
// Example usage:
//
//	reg := factory.NewRegistry[knowledge.Retriever]()
//	reg.Register("http", func(conf map[string]any) (knowledge.Retriever, error) {
//	    var c struct{ URL string `json:"url"` }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return NewHTTPRetriever(c.URL), nil
//	})
//	r, err := reg.Create(factory.ModuleConfig{Type: "http", Conf: map[string]any{"url": "http://kb"}})
package factory
