package stream

import "context"

// ToList drains r to completion (or cancellation) and returns every
// surviving record in arrival order.
func (r *Result) ToList(ctx context.Context) []any {
	var out []any
	for {
		v, ok := r.Next(ctx)
		if !ok {
			return out
		}
		out = append(out, v)
	}
}

// Batch is one page returned by ToBatch: Values holds up to size records,
// and Done reports whether the underlying stream is now exhausted.
type Batch struct {
	Values []any
	Done   bool
}

// ToBatch drains up to size records (or fewer if the stream ends first),
// returning a Batch the caller can page through.
func (r *Result) ToBatch(ctx context.Context, size int) Batch {
	values := make([]any, 0, size)
	for len(values) < size {
		v, ok := r.Next(ctx)
		if !ok {
			return Batch{Values: values, Done: true}
		}
		values = append(values, v)
	}
	return Batch{Values: values, Done: false}
}
