// Package body implements the Body sum type (spec.md §3): Empty, Json, and
// Streaming payload variants, each able to serialize to bytes in a given
// character encoding.
package body

import (
	"context"
	"encoding/json"
	"fmt"
)

// Body is implemented by Empty, Json and Streaming.
type Body interface {
	// Bytes serializes the body to wire bytes using the given charset
	// (e.g. "utf-8"). Streaming bodies drain every remaining chunk and
	// return their concatenated bytes; transports that want incremental
	// delivery should type-assert to Streaming and drive Next.
	Bytes(charset string) ([]byte, error)
	isBody()
}

// Empty is the no-payload variant.
type Empty struct{}

func (Empty) isBody() {}
func (Empty) Bytes(string) ([]byte, error) { return nil, nil }

// Json wraps any JSON-representable value (primitive, slice, map, or a
// scheme instance implementing json.Marshaler).
type Json struct {
	Value any
}

func (Json) isBody() {}

func (j Json) Bytes(charset string) ([]byte, error) {
	b, err := json.Marshal(j.Value)
	if err != nil {
		return nil, fmt.Errorf("body: marshal json: %w", err)
	}
	return recode(b, charset), nil
}

// DumpToJSONable returns the value as-is; callers that need a
// JSON-compatible map/slice tree should marshal+unmarshal through
// Bytes/json.Unmarshal, since the scheme system (out of scope) would
// normally own typed-to-jsonable conversion.
func (j Json) DumpToJSONable() any { return j.Value }

// DumpToStr renders the JSON payload as a string.
func (j Json) DumpToStr() (string, error) {
	b, err := j.Bytes("utf-8")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Chunk is one unit yielded by a Streaming body's generator. It is itself a
// non-streaming Body (§3: "yields zero or more non-streaming Bodies").
type Chunk = Body

// Generator produces chunks until it returns done=true or an error. It
// suspends (may block on ctx) between chunks — the framework's only
// streaming-body contract (§5 "Streaming bodies yield one chunk per
// scheduler tick").
type Generator func(ctx context.Context) (chunk Chunk, done bool, err error)

// Streaming is the streaming-response variant. Cleanup runs when the
// consumer disconnects before the generator completes normally (§3, §5).
type Streaming struct {
	Next    Generator
	Cleanup func()
}

func (Streaming) isBody() {}

// Bytes on a Streaming body drains the remaining chunks and concatenates
// their bytes; transports that want true incremental delivery should drive
// Next directly instead (internal/transport/http does this).
func (s Streaming) Bytes(charset string) ([]byte, error) {
	ctx := context.Background()
	var out []byte
	for {
		chunk, done, err := s.Next(ctx)
		if err != nil {
			if s.Cleanup != nil {
				s.Cleanup()
			}
			return nil, err
		}
		if done {
			return out, nil
		}
		b, err := chunk.Bytes(charset)
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
}

func recode(utf8 []byte, charset string) []byte {
	// The core router only ever produces UTF-8 JSON; non-UTF-8 charsets
	// are a transport-negotiation concern handled by the HTTP adapter when
	// writing the response, not by the Body itself.
	_ = charset
	return utf8
}
