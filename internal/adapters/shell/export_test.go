package shell

import "io"

// SetOutput redirects the builder's forwarded output.
func (b *Builder) SetOutput(w io.Writer) {
	b.out = w
}

// SetEnviron replaces the invoking environment.
func (b *Builder) SetEnviron(fn func() []string) {
	b.environ = fn
}
