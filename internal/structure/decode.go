package structure

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// DecodeJSON reads a JSON document into a Value. Object keys keep their input
// order, which encoding/json's map decoding would lose; numeric-looking keys
// decode as integer keys the way loosely-keyed array input behaves.
func DecodeJSON(r io.Reader) (*Value, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected trailing data after JSON document")
	}
	return v, nil
}

// DecodeJSONString is DecodeJSON over an in-memory document.
func DecodeJSONString(s string) (*Value, error) {
	return DecodeJSON(strings.NewReader(s))
}

func decodeValue(dec *json.Decoder) (*Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to read JSON token: %w", err)
	}
	return decodeFromToken(dec, tok)
}

func decodeFromToken(dec *json.Decoder, tok json.Token) (*Value, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		}
		return nil, fmt.Errorf("unexpected delimiter %q", t.String())
	case string:
		return Scalar(t), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return nil, fmt.Errorf("failed to parse number %q: %w", t.String(), err)
		}
		return Scalar(f), nil
	case bool:
		return Scalar(t), nil
	case nil:
		return Scalar(nil), nil
	}
	return nil, fmt.Errorf("unexpected JSON token %v", tok)
}

func decodeObject(dec *json.Decoder) (*Value, error) {
	var entries []Entry
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("failed to read object key: %w", err)
		}
		keyStr, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected object key %v", keyTok)
		}

		value, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{Key: parseKey(keyStr), Value: value})
	}
	if _, err := dec.Token(); err != nil { // consume '}'
		return nil, fmt.Errorf("failed to read object end: %w", err)
	}
	return &Value{Kind: KindMap, Entries: entries}, nil
}

func decodeArray(dec *json.Decoder) (*Value, error) {
	var entries []Entry
	for dec.More() {
		value, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{Key: IntKey(len(entries)), Value: value})
	}
	if _, err := dec.Token(); err != nil { // consume ']'
		return nil, fmt.Errorf("failed to read array end: %w", err)
	}
	return &Value{Kind: KindMap, Entries: entries}, nil
}

// parseKey treats keys that are wholly numeric as integer keys. A leading
// minus sign counts: "-25" is the integer -25, not a name.
func parseKey(s string) Key {
	if n, err := strconv.Atoi(s); err == nil {
		return IntKey(n)
	}
	return StrKey(s)
}
