package berth

import "github.com/hashicorp/go-hclog"

type options struct {
	log hclog.Logger
}

// Option configures an Importer or Registrar.
type Option func(*options)

// WithLogger sets the logger used for debug-level wiring output. The default
// discards everything.
func WithLogger(log hclog.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

func newOptions(opts []Option) options {
	o := options{log: hclog.NewNullLogger()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
