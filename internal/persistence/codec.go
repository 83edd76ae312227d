package persistence

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/talgya/warfront/internal/world"
)

var (
	zenc, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	zdec, _ = zstd.NewReader(nil)
)

// encodeDelta serializes a delta as zstd-compressed JSON.
func encodeDelta(d world.Delta) ([]byte, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("marshal delta: %w", err)
	}
	return zenc.EncodeAll(raw, nil), nil
}

func decodeDelta(payload []byte) (world.Delta, error) {
	var d world.Delta
	raw, err := zdec.DecodeAll(payload, nil)
	if err != nil {
		return d, fmt.Errorf("decompress delta: %w", err)
	}
	if err := json.Unmarshal(raw, &d); err != nil {
		return d, fmt.Errorf("unmarshal delta: %w", err)
	}
	return d, nil
}

// nullJSON marshals v, storing NULL for nil values and empty maps.
func nullJSON(v any) (sql.NullString, error) {
	switch m := v.(type) {
	case nil:
		return sql.NullString{}, nil
	case map[string]any:
		if len(m) == 0 {
			return sql.NullString{}, nil
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	if string(b) == "null" {
		return sql.NullString{}, nil
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func toMs(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMs(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
