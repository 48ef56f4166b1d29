package stream

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/tidwall/gjson"
)

var ErrMissingAttribute = errors.New("missing attribute in read line")

// ScanLinesBatchingEntities reads NDJSON rows and groups them into
// same-entity batches of up to batchSize lines, flushing partial
// batches at EOF. The output channel is buffered to workers so the
// scanner stays ahead of the pool without unbounded memory. Rows
// missing id or time are reported on the error channel and skipped.
func ScanLinesBatchingEntities(reader io.Reader, quit <-chan struct{}, batchSize, workers int) (<-chan [][]byte, chan error) {
	if workers == 0 {
		panic("refusing to send batches on an unbuffered channel")
	}
	out := make(chan [][]byte, workers)
	errs := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errs)

		readOnce := sync.Once{}
		batches := map[string][][]byte{}
		dec := json.NewDecoder(reader)

		met := newTickScanMeter(5 * time.Second)
		defer met.stop()

	readLoop:
		for {
			msg := json.RawMessage{}
			err := dec.Decode(&msg)
			if err != nil {
				sendErr(errs, err)
				if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
					break
				}
				slog.Error("Decode error", "error", err)
				break
			}

			readOnce.Do(func() {
				slog.Info("Reading rows")
				met.started = time.Now()
			})

			t := gjson.GetBytes(msg, "datetime")
			if !t.Exists() {
				sendErr(errs, fmt.Errorf("%w: datetime in line: %s", ErrMissingAttribute, string(msg)))
				continue
			}
			met.mark(t.Time(), msg)

			id := gjson.GetBytes(msg, "id")
			if !id.Exists() {
				sendErr(errs, fmt.Errorf("%w: id in line: %s", ErrMissingAttribute, string(msg)))
				continue
			}

			entity := id.String()
			if _, ok := batches[entity]; !ok {
				met.addEntity(entity)
			}
			batches[entity] = append(batches[entity], msg)
			if len(batches[entity]) >= batchSize {
				out <- batches[entity]
				batches[entity] = [][]byte{}
			}

			select {
			case <-quit:
				slog.Warn("Reader received quit")
				break readLoop
			default:
			}
		}

		for entity, lines := range batches {
			if len(lines) > 0 {
				slog.Debug("Scanner flushing pending", "entity", entity, "lines", len(lines))
				out <- lines
			}
		}
	}()

	return out, errs
}

func sendErr(errs chan error, err error) {
	select {
	case errs <- err:
	default:
		slog.Warn("Error channel full, dropping error", "error", err)
	}
}
