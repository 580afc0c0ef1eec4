package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Doc is the stored shape of a record in either backend. Keys differ between
// records written by different clients over time, so reads go through the
// ordered-fallback accessors below.
type Doc map[string]any

var (
	grossKeys     = []string{"total", "amount", "amountN", "totalAmount"}
	referenceKeys = []string{"reference", "ref"}
	guestKeys     = []string{"guestEmail", "email", "guest"}
	hostIDKeys    = []string{"hostId", "ownerId"}
	hostEmailKeys = []string{"hostEmail", "ownerEmail", "payeeEmail"}
	listingKeys   = []string{"listingId", "listing_id", "listing"}
	nightsKeys    = []string{"nights", "nightCount"}
	checkInKeys   = []string{"checkIn", "startDate", "from"}
	checkOutKeys  = []string{"checkOut", "endDate", "to"}
	createdKeys   = []string{"createdAt", "created", "created_at", "timestamp"}
	updatedKeys   = []string{"updatedAt", "updated"}
	// IDKeys are the fields a flat-file record may carry its identity in.
	IDKeys = []string{"id", "bookingId", "firestoreId", "_id"}
)

// Clone returns a shallow copy.
func (d Doc) Clone() Doc {
	out := make(Doc, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Merge overlays patch onto a copy of d.
func (d Doc) Merge(patch Doc) Doc {
	out := d.Clone()
	for k, v := range patch {
		out[k] = v
	}
	return out
}

// String returns the first non-empty string-like value among keys.
func (d Doc) String(keys ...string) string {
	for _, k := range keys {
		if s := asString(d[k]); s != "" {
			return s
		}
	}
	return ""
}

// Number returns the first non-zero numeric value among keys.
func (d Doc) Number(keys ...string) float64 {
	for _, k := range keys {
		if n, ok := asNumber(d[k]); ok && n != 0 {
			return n
		}
	}
	return 0
}

// Bool reports whether any of keys holds a truthy value.
func (d Doc) Bool(keys ...string) bool {
	for _, k := range keys {
		switch v := d[k].(type) {
		case bool:
			if v {
				return true
			}
		case string:
			s := strings.ToLower(strings.TrimSpace(v))
			if s == "true" || s == "yes" || s == "1" {
				return true
			}
		default:
			if n, ok := asNumber(v); ok && n != 0 {
				return true
			}
		}
	}
	return false
}

// Time returns the first parseable timestamp among keys.
func (d Doc) Time(keys ...string) (time.Time, bool) {
	for _, k := range keys {
		if t, ok := ParseTimeLoose(d[k]); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

// Map returns a nested object under key, if any.
func (d Doc) Map(key string) Doc {
	switch v := d[key].(type) {
	case map[string]any:
		return Doc(v)
	case Doc:
		return v
	}
	return nil
}

func asString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	case json.Number:
		return s.String()
	case float64:
		if s == math.Trunc(s) {
			return strconv.FormatInt(int64(s), 10)
		}
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int, int32, int64:
		return fmt.Sprint(s)
	}
	return ""
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

// ParseTimeLoose understands the date shapes found in stored records: time.Time,
// RFC3339 and date-only strings, epoch milliseconds and {seconds, nanoseconds}
// timestamp objects.
func ParseTimeLoose(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), !t.IsZero()
	case *time.Time:
		if t == nil || t.IsZero() {
			return time.Time{}, false
		}
		return t.UTC(), true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
			if p, err := time.Parse(layout, s); err == nil {
				return p.UTC(), true
			}
		}
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil && ms > 0 {
			return time.UnixMilli(ms).UTC(), true
		}
	case map[string]any:
		secs, ok := asNumber(t["seconds"])
		if !ok {
			secs, ok = asNumber(t["_seconds"])
		}
		if ok {
			nanos, _ := asNumber(t["nanoseconds"])
			return time.Unix(int64(secs), int64(nanos)).UTC(), true
		}
	default:
		if ms, ok := asNumber(v); ok && ms > 0 {
			return time.UnixMilli(int64(ms)).UTC(), true
		}
	}
	return time.Time{}, false
}
