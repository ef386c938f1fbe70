// Package ref generates push references for the socket layer: unique,
// monotonically increasing identifiers carried on outgoing messages so
// replies can be routed back to their pushes.
package ref

import (
	"strconv"
	"sync/atomic"
)

// Generator hands out monotonically increasing refs. The zero value is
// ready to use; Next is safe for concurrent callers.
type Generator struct {
	counter atomic.Uint64
}

// Next returns the next ref as a decimal string, starting at "1".
func (g *Generator) Next() string {
	return strconv.FormatUint(g.counter.Add(1), 10)
}
