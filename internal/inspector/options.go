package inspector

// DefaultThreshold is the number of bytes before the EOI marker examined by
// the corruption heuristic.
const DefaultThreshold = 50

type options struct {
	threshold       int
	ignoreExtension bool
	name            string
}

// Option configures an Inspector.
type Option func(*options)

// WithThreshold sets the size of the tail window, excluding the EOI marker.
func WithThreshold(n int) Option {
	return func(o *options) {
		o.threshold = n
	}
}

// IgnoreExtension disables the .jpg/.jpeg filename check.
func IgnoreExtension() Option {
	return func(o *options) {
		o.ignoreExtension = true
	}
}

// WithName attaches a filename to a source that is not opened by path, so
// the extension check and error messages can refer to it.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

func buildOptions(opts []Option) options {
	o := options{threshold: DefaultThreshold}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
