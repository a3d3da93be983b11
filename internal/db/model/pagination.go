package model

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
)

// EncodePaginationToken turns a resume position into an opaque url-safe token.
func EncodePaginationToken[T any](position T) (string, error) {
	raw, err := json.Marshal(position)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// DecodePaginationToken rejects tokens that carry fields T does not know.
func DecodePaginationToken[T any](token string) (*T, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	var position T
	if err := dec.Decode(&position); err != nil {
		return nil, err
	}
	return &position, nil
}
