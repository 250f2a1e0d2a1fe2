package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// canonicalJSON renders v as JSON with lexicographically sorted object keys
// and no insignificant whitespace, per spec.md's definition of "canonical
// form". encoding/json's default Marshal cannot be used directly for this:
// a Go struct's field order is fixed at compile time and map iteration
// order is randomized, so neither reproduces a deterministic sorted-key
// encoding on its own. Only the handful of shapes the ledger actually
// produces (strings, integers, bools, string maps, generic maps and
// slices of the above) are supported; anything else is a programming
// error in this package, not a runtime condition callers need to handle.
func canonicalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeCanonical(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		buf.WriteString("null")
		return nil
	case string:
		return encodeJSONScalar(buf, val)
	case bool:
		return encodeJSONScalar(buf, val)
	case int:
		return encodeJSONScalar(buf, val)
	case int64:
		return encodeJSONScalar(buf, val)
	case uint64:
		return encodeJSONScalar(buf, val)
	case float64:
		return encodeJSONScalar(buf, val)
	case map[string]string:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeJSONScalar(buf, k); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := encodeJSONScalar(buf, val[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeJSONScalar(buf, k); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := encodeCanonical(buf, val[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	case []any:
		buf.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeCanonical(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	default:
		return fmt.Errorf("ledger: canonicalJSON: unsupported type %T", v)
	}
}

// encodeJSONScalar defers to encoding/json for a single scalar value. This
// is safe to use for scalars (no key ordering involved) and gives us
// correct string escaping for free.
func encodeJSONScalar(buf *bytes.Buffer, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}
