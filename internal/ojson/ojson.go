// Package ojson decodes JSON into an order-preserving representation.
// The standard library's map[string]interface{} loses key order, but the
// schema reducer needs the original field order to honor
// preserve_input_sort_order and to produce deterministic flatten output
// for callers who rely on first-seen field position.
package ojson

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// KV is one key/value pair of a decoded JSON object, in source order.
type KV struct {
	Key   string
	Value interface{}
}

// Object is a JSON object decoded with its key order intact. Values are
// nil, bool, json.Number, string, []interface{}, or Object.
type Object []KV

// Get returns the first value for key, if present.
func (o Object) Get(key string) (interface{}, bool) {
	for _, kv := range o {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return nil, false
}

// Decode reads exactly one JSON value from r, preserving object key order
// and decoding numbers as json.Number so integer/float classification
// matches the literal text rather than float64's lossy representation.
func Decode(r io.Reader) (interface{}, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// DecodeString is a convenience wrapper over Decode for an in-memory line.
func DecodeString(s string) (interface{}, error) {
	return Decode(bytes.NewReader([]byte(s)))
}

func decodeValue(dec *json.Decoder) (interface{}, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return decodeFromToken(dec, tok)
}

func decodeFromToken(dec *json.Decoder, tok json.Token) (interface{}, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		default:
			return nil, fmt.Errorf("ojson: unexpected delimiter %q", t)
		}
	case nil, bool, string, json.Number:
		return t, nil
	default:
		return nil, fmt.Errorf("ojson: unexpected token %T", tok)
	}
}

func decodeObject(dec *json.Decoder) (Object, error) {
	obj := Object{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("ojson: expected object key, got %T", keyTok)
		}
		val, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		obj = append(obj, KV{Key: key, Value: val})
	}
	// Consume the closing '}'.
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return obj, nil
}

func decodeArray(dec *json.Decoder) ([]interface{}, error) {
	arr := []interface{}{}
	for dec.More() {
		val, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		arr = append(arr, val)
	}
	// Consume the closing ']'.
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return arr, nil
}
