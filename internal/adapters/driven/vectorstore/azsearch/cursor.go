package azsearch

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/veldt-labs/bookrag/internal/core/domain"
)

// Cursor carries the service's next-page request parameters between
// scan calls. The service echoes them verbatim; callers only see the
// opaque encoded form.
type Cursor struct {
	NextPageParameters json.RawMessage `json:"npp"`
}

// Encode serialises the cursor to a base64 string.
func (c *Cursor) Encode() string {
	data, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(data)
}

// DecodeCursor deserialises a cursor from a base64 string. An empty
// string yields a fresh cursor.
func DecodeCursor(s string) (*Cursor, error) {
	if s == "" {
		return &Cursor{}, nil
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: decode page token: %v", domain.ErrInvalidInput, err)
	}
	var c Cursor
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: parse page token: %v", domain.ErrInvalidInput, err)
	}
	return &c, nil
}
