package api

import (
	"bytes"
	"encoding/json"
	"fmt"

	"connectrpc.com/connect"
)

// CodecName is the connect codec name, requests use the
// application/json content type.
const CodecName = "json"

var _ connect.Codec = Codec{}

// Codec serialises plain Go message structs as JSON. It replaces connect's
// protobuf backed JSON codec, the site API has no protobuf schema.
type Codec struct{}

func (Codec) Name() string { return CodecName }

func (Codec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

// MarshalStable is used for HTTP GET requests, encoding/json already writes
// map keys in sorted order.
func (c Codec) MarshalStable(msg any) ([]byte, error) {
	return c.Marshal(msg)
}

// IsBinary reports that the codec output is text, so GET requests carry it
// without base64.
func (Codec) IsBinary() bool { return false }

// Unmarshal keeps numbers as json.Number so ids and prices are not rounded
// through float64. Unknown fields are ignored.
func (Codec) Unmarshal(data []byte, msg any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(msg); err != nil {
		return fmt.Errorf("unmarshal %T: %w", msg, err)
	}
	return nil
}
