// Package stream provides the channel combinators the pipelines are
// built from. All combinators respect context cancellation and close
// their output when the input drains.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"slices"
	"sync"
)

func Slice[T any](ctx context.Context, in []T) <-chan T {
	out := make(chan T)
	go func() {
		defer close(out)
		for _, element := range in {
			select {
			case <-ctx.Done():
				return
			case out <- element:
			}
		}
	}()
	return out
}

// NDJSON decodes newline-delimited JSON into T until EOF. A malformed
// document ends the stream; the decoder cannot resynchronize past it.
func NDJSON[T any](ctx context.Context, in io.Reader) <-chan T {
	out := make(chan T)
	go func() {
		defer close(out)
		dec := json.NewDecoder(in)
		for {
			var element T
			if err := dec.Decode(&element); err != nil {
				if !errors.Is(err, io.EOF) {
					slog.Warn("NDJSON decode error", "error", err)
				}
				return
			}
			select {
			case <-ctx.Done():
				return
			case out <- element:
			}
		}
	}()
	return out
}

func Filter[T any](ctx context.Context, predicate func(T) bool, in <-chan T) <-chan T {
	out := make(chan T)
	go func() {
		defer close(out)
		for element := range in {
			if !predicate(element) {
				continue
			}
			select {
			case <-ctx.Done():
				return
			case out <- element:
			}
		}
	}()
	return out
}

func Transform[I any, O any](ctx context.Context, transformer func(I) O, in <-chan I) <-chan O {
	out := make(chan O)
	go func() {
		defer close(out)
		for element := range in {
			select {
			case <-ctx.Done():
				return
			case out <- transformer(element):
			}
		}
	}()
	return out
}

func Collect[T any](ctx context.Context, in <-chan T) []T {
	out := make([]T, 0)
	for element := range in {
		select {
		case <-ctx.Done():
			return out
		default:
			out = append(out, element)
		}
	}
	return out
}

// Tee duplicates a stream. Both outputs must be consumed; a stalled
// reader stalls its sibling.
func Tee[T any](ctx context.Context, in <-chan T) (<-chan T, <-chan T) {
	out1, out2 := make(chan T), make(chan T)
	go func() {
		defer close(out1)
		defer close(out2)
		for element := range in {
			var c1, c2 chan T = out1, out2
			for i := 0; i < 2; i++ {
				select {
				case <-ctx.Done():
					return
				case c1 <- element:
					c1 = nil
				case c2 <- element:
					c2 = nil
				}
			}
		}
	}()
	return out1, out2
}

// Fork routes elements satisfying predicate to the first output and
// the rest to the second.
func Fork[T any](ctx context.Context, predicate func(T) bool, in <-chan T) (<-chan T, <-chan T) {
	yes, no := make(chan T), make(chan T)
	go func() {
		defer close(yes)
		defer close(no)
		for element := range in {
			target := no
			if predicate(element) {
				target = yes
			}
			select {
			case <-ctx.Done():
				return
			case target <- element:
			}
		}
	}()
	return yes, no
}

// Split broadcasts every element to all outs, closing them when the
// input drains.
func Split[T any](ctx context.Context, in <-chan T, outs ...chan T) {
	go func() {
		defer func() {
			for _, out := range outs {
				close(out)
			}
		}()
		for element := range in {
			for _, out := range outs {
				select {
				case <-ctx.Done():
					return
				case out <- element:
				}
			}
		}
	}()
}

// Merge fans several streams into one, closing the output when the
// last input drains.
func Merge[T any](ctx context.Context, ins ...<-chan T) <-chan T {
	out := make(chan T)
	wg := sync.WaitGroup{}
	wg.Add(len(ins))
	for _, in := range ins {
		go func(in <-chan T) {
			defer wg.Done()
			for element := range in {
				select {
				case <-ctx.Done():
					return
				case out <- element:
				}
			}
		}(in)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// Sink drains the stream, calling fn (if non-nil) for each element.
// Blocking.
func Sink[T any](ctx context.Context, fn func(T), in <-chan T) {
	for element := range in {
		select {
		case <-ctx.Done():
			return
		default:
			if fn != nil {
				fn(element)
			}
		}
	}
}

// BatchSort buffers up to size elements, sorts the batch with cmp, and
// emits it. Ordering holds within a batch but not across batch
// boundaries.
func BatchSort[T any](ctx context.Context, size int, cmp func(a, b T) int, in <-chan T) <-chan T {
	out := make(chan T)
	go func() {
		defer close(out)
		batch := make([]T, 0, size)
		flush := func() bool {
			slices.SortStableFunc(batch, cmp)
			for _, element := range batch {
				select {
				case <-ctx.Done():
					return false
				case out <- element:
				}
			}
			batch = batch[:0]
			return true
		}
		for element := range in {
			batch = append(batch, element)
			if len(batch) >= size {
				if !flush() {
					return
				}
			}
		}
		flush()
	}()
	return out
}

// RingSort repairs slightly-shuffled streams with a sliding sorted
// window of size elements: once the window is full, each arrival evicts
// and emits the current minimum. Elements displaced by more than size
// positions come out misordered; that is the buffer-size tradeoff.
func RingSort[T any](ctx context.Context, size int, cmp func(a, b T) int, in <-chan T) <-chan T {
	out := make(chan T)
	go func() {
		defer close(out)
		rb := NewSortingRingBuffer[T](size, cmp)
		for element := range in {
			if rb.Full() {
				select {
				case <-ctx.Done():
					return
				case out <- rb.PopFirst():
				}
			}
			rb.Add(element)
		}
		for rb.Len() > 0 {
			select {
			case <-ctx.Done():
				return
			case out <- rb.PopFirst():
			}
		}
	}()
	return out
}
