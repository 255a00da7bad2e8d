package mirror

import (
	"encoding/json"
	"errors"
)

// recordVersion is written as the first byte of every encoded record.
const recordVersion byte = 1

// Encode serializes rec as a version byte followed by its JSON form.
func Encode(rec Record) ([]byte, error) {
	body, err := json.Marshal(rec)
	if err != nil {
		return nil, errors.Join(ErrEncode, err)
	}

	out := make([]byte, 0, len(body)+1)
	out = append(out, recordVersion)
	return append(out, body...), nil
}

// Decode parses data produced by Encode.
// Any malformed input yields an error wrapping ErrDecode.
func Decode(data []byte) (Record, error) {
	var rec Record

	if len(data) < 2 {
		return rec, errors.Join(ErrDecode, errors.New("record too short"))
	}
	if data[0] != recordVersion {
		return rec, errors.Join(ErrDecode, errors.New("unknown record version"))
	}
	if err := json.Unmarshal(data[1:], &rec); err != nil {
		return rec, errors.Join(ErrDecode, err)
	}
	if rec.Key == "" || rec.ExpiresAt.IsZero() {
		return rec, errors.Join(ErrDecode, errors.New("record is missing key or expiry"))
	}

	return rec, nil
}
