// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package query

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/blinklabs-io/zklicense/protocol"
)

// DefaultChunkSize is the size of each read from the underlying stream
const DefaultChunkSize = 4096

// StreamDecoder decodes a byte stream of fixed-size items. Items may be split across
// reads in any way. A decoder must not be used from more than one goroutine
type StreamDecoder[T any] struct {
	r         io.ReadCloser
	itemSize  int
	decode    func([]byte) (T, error)
	chunkSize int
	buf       []byte
	eof       bool
	err       error
	position  int
}

// StreamOptionFunc is a type that represents functions that modify the StreamDecoder config
type StreamOptionFunc func(*streamConfig)

type streamConfig struct {
	chunkSize int
}

// WithStreamChunkSize specifies the read size. The default is DefaultChunkSize
func WithStreamChunkSize(size int) StreamOptionFunc {
	return func(c *streamConfig) {
		c.chunkSize = size
	}
}

// NewStreamDecoder returns a decoder reading itemSize-byte items from r
func NewStreamDecoder[T any](
	r io.ReadCloser,
	itemSize int,
	decode func([]byte) (T, error),
	opts ...StreamOptionFunc,
) *StreamDecoder[T] {
	cfg := streamConfig{chunkSize: DefaultChunkSize}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.chunkSize <= 0 {
		cfg.chunkSize = DefaultChunkSize
	}
	d := &StreamDecoder[T]{
		r:         r,
		itemSize:  itemSize,
		decode:    decode,
		chunkSize: cfg.chunkSize,
	}
	if itemSize <= 0 {
		d.err = fmt.Errorf("invalid item size %d", itemSize)
	}
	return d
}

// Next returns the next item. It returns io.EOF when the stream ended cleanly on an
// item boundary, and an EncodingError when it ended inside an item
func (d *StreamDecoder[T]) Next() (T, error) {
	var ret T
	if d.err != nil {
		return ret, d.err
	}
	chunk := make([]byte, d.chunkSize)
	for len(d.buf) < d.itemSize {
		if d.eof {
			if len(d.buf) == 0 {
				d.err = io.EOF
			} else {
				d.err = protocol.NewEncodingError(
					"decode stream",
					fmt.Errorf(
						"stream ended with %d leftover bytes, items are %d bytes",
						len(d.buf),
						d.itemSize,
					),
				)
			}
			return ret, d.err
		}
		n, err := d.r.Read(chunk)
		d.buf = append(d.buf, chunk[:n]...)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				d.err = &protocol.TransportError{Op: "read stream", Err: err}
				return ret, d.err
			}
			d.eof = true
		}
	}
	item, err := d.decode(d.buf[:d.itemSize])
	if err != nil {
		if !errors.Is(err, protocol.ErrEncoding) {
			err = protocol.NewEncodingError("decode stream item", err)
		}
		d.err = err
		return ret, err
	}
	// Keep the tail for the next item
	d.buf = append(d.buf[:0], d.buf[d.itemSize:]...)
	d.position++
	return item, nil
}

// Position returns the number of items returned so far
func (d *StreamDecoder[T]) Position() int {
	return d.position
}

// Close closes the underlying stream
func (d *StreamDecoder[T]) Close() error {
	return d.r.Close()
}

// CollectAll reads every remaining item and closes the stream
func (d *StreamDecoder[T]) CollectAll(ctx context.Context) ([]T, error) {
	defer d.Close()
	var ret []T
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		item, err := d.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return ret, nil
			}
			return nil, err
		}
		ret = append(ret, item)
	}
}

// FindFirst returns the first item matching pred and its zero-based position in the
// stream. It returns a NotFoundError if the stream ends without a match. The stream is
// closed on return
func (d *StreamDecoder[T]) FindFirst(
	ctx context.Context,
	pred func(T) bool,
) (T, int, error) {
	defer d.Close()
	var zero T
	for {
		if err := ctx.Err(); err != nil {
			return zero, 0, err
		}
		item, err := d.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return zero, 0, &protocol.NotFoundError{Op: "find in stream"}
			}
			return zero, 0, err
		}
		if pred(item) {
			return item, d.position - 1, nil
		}
	}
}
