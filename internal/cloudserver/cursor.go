package cloudserver

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"

	"github.com/mmcdole/foodpin/internal/domain"
)

var errInvalidMarker = errors.New("invalid continuation marker")

// marker is the decoded form of a continuation marker
type marker struct {
	After int64  `json:"a"`
	Query string `json:"q"`
}

// queryFingerprint identifies a query so a marker cannot be replayed against another
func queryFingerprint(q domain.Query) string {
	data, _ := json.Marshal(q)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}

func encodeMarker(after int64, q domain.Query) string {
	data, _ := json.Marshal(marker{After: after, Query: queryFingerprint(q)})
	return base64.RawURLEncoding.EncodeToString(data)
}

// decodeMarker returns the sequence to resume after
func decodeMarker(s string, q domain.Query) (int64, error) {
	data, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return 0, errInvalidMarker
	}
	var m marker
	if err := json.Unmarshal(data, &m); err != nil || m.After < 0 {
		return 0, errInvalidMarker
	}
	if m.Query != queryFingerprint(q) {
		return 0, errInvalidMarker
	}
	return m.After, nil
}
