package cache

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Codec serializes values into the bytes held by both tiers.
// Values are encoded on Set and decoded on every hit, so callers never share
// memory with a stored entry.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// JSONCodec encodes values with encoding/json. It is the default codec.
type JSONCodec struct{}

func (JSONCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (JSONCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Payload header values. Every stored payload starts with one of them.
const (
	payloadRaw  byte = 0
	payloadZstd byte = 1
)

// payloadCodec wraps a Codec with the one-byte payload header and optional
// zstd compression for payloads at or above threshold bytes.
type payloadCodec struct {
	codec     Codec
	enc       *zstd.Encoder
	dec       *zstd.Decoder
	threshold int
}

func newPayloadCodec(codec Codec, threshold int) (*payloadCodec, error) {
	p := &payloadCodec{codec: codec, threshold: threshold}

	// The decoder is always present so compressed payloads written by another
	// instance through the mirror stay readable.
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("cache: zstd decoder: %w", err)
	}
	p.dec = dec

	if threshold > 0 {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, fmt.Errorf("cache: zstd encoder: %w", err)
		}
		p.enc = enc
	}

	return p, nil
}

func (p *payloadCodec) encode(v any) ([]byte, error) {
	data, err := p.codec.Marshal(v)
	if err != nil {
		return nil, errors.Join(ErrMarshal, err)
	}

	if p.enc != nil && len(data) >= p.threshold {
		out := make([]byte, 1, len(data)/2+1)
		out[0] = payloadZstd
		return p.enc.EncodeAll(data, out), nil
	}

	out := make([]byte, len(data)+1)
	out[0] = payloadRaw
	copy(out[1:], data)
	return out, nil
}

func (p *payloadCodec) decode(payload []byte, v any) error {
	if len(payload) == 0 {
		return errors.Join(ErrUnmarshal, errors.New("empty payload"))
	}

	data := payload[1:]
	switch payload[0] {
	case payloadRaw:
	case payloadZstd:
		raw, err := p.dec.DecodeAll(data, nil)
		if err != nil {
			return errors.Join(ErrUnmarshal, err)
		}
		data = raw
	default:
		return errors.Join(ErrUnmarshal, fmt.Errorf("unknown payload header %d", payload[0]))
	}

	if err := p.codec.Unmarshal(data, v); err != nil {
		return errors.Join(ErrUnmarshal, err)
	}
	return nil
}
