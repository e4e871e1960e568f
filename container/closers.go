package container

import (
	"fmt"
	"io"

	"go.uber.org/multierr"
)

type namedCloser struct {
	name  string
	close func() error
}

// closers release resources in reverse order of registration, so a resource is closed
// before the ones it was built on.
type closers []namedCloser

func (c *closers) add(name string, closer io.Closer) {
	c.addFunc(name, closer.Close)
}

// addFunc register resources whose shutdown is not an io.Closer, such as the worker pool.
func (c *closers) addFunc(name string, fn func() error) {
	*c = append(*c, namedCloser{name: name, close: fn})
}

func (c closers) Close() error {
	var err error
	for i := len(c) - 1; i >= 0; i-- {
		if _err := c[i].close(); _err != nil {
			err = multierr.Append(err, fmt.Errorf("%s: %w", c[i].name, _err))
		}
	}

	return err
}
