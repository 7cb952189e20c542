// Package stormcbor provides a CBOR marshaling codec for Storm.
// http://cbor.io/
// https://tools.ietf.org/html/rfc7049
package stormcbor

import (
	"github.com/ugorji/go/codec"
)

const name = "cbor"

// Codec that encodes to and decodes from CBOR (Concise Binary Object Representation).
var Codec = new(cborCodec)

var handle = new(codec.CborHandle)

type cborCodec int

func (c cborCodec) Marshal(v any) (b []byte, err error) {
	err = codec.NewEncoderBytes(&b, handle).Encode(v)
	return b, err
}

func (c cborCodec) Unmarshal(b []byte, v any) error {
	return codec.NewDecoderBytes(b, handle).Decode(v)
}

func (c cborCodec) Name() string {
	return name
}
