package knowledge

import (
	"errors"
	"time"

	"github.com/kilianp07/batterycare/auth"
	"github.com/kilianp07/batterycare/core/factory"
	coreknowledge "github.com/kilianp07/batterycare/core/knowledge"
)

// init registers built-in retrievers.
func init() {
	_ = coreknowledge.RegisterRetriever("none", func(map[string]any) (coreknowledge.Retriever, error) {
		return coreknowledge.NopRetriever{}, nil
	})

	_ = coreknowledge.RegisterRetriever("sqlite", func(conf map[string]any) (coreknowledge.Retriever, error) {
		var c struct {
			Path string `json:"path"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.Path == "" {
			return nil, errors.New("sqlite retriever: path is required")
		}
		return NewSQLiteIndex(c.Path)
	})

	_ = coreknowledge.RegisterRetriever("http", func(conf map[string]any) (coreknowledge.Retriever, error) {
		var c struct {
			URL     string        `json:"url"`
			Token   string        `json:"token"`
			Timeout time.Duration `json:"timeout"`
			OAuth   auth.Conf     `json:"oauth"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.URL == "" {
			return nil, errors.New("http retriever: url is required")
		}
		var a auth.Authorizer = auth.StaticToken(c.Token)
		if c.OAuth.Enabled() {
			a = auth.NewClientCred(c.OAuth)
		}
		return NewHTTPRetriever(c.URL, a, c.Timeout), nil
	})
}
