package internal

import "github.com/starford/ansuz/internal/watch"

// Option is a functional option for configuring the ingest daemon.
type Option func(*application)

type application struct {
	config  *Config
	onEvent watch.EventCallback
}

// WithConfig sets the daemon configuration. Required.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithEventCallback registers a callback invoked after every
// watcher-driven store change (ingest, replace, delete). Embedding
// pipelines hook in here to re-embed changed documents.
func WithEventCallback(cb watch.EventCallback) Option {
	return func(a *application) {
		a.onEvent = cb
	}
}
