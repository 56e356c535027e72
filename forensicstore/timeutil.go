package forensicstore

import "time"

// timeField renders v as the record-ready timestamp string. A time.Time is
// formatted to millisecond-precision ISO 8601 with a literal "Z", matching
// pyforensicstore's created.isoformat(timespec='milliseconds') + 'Z'. A
// string is passed through unchanged, since callers may already hold a
// pre-formatted timestamp (the original accepts "datetime or str" for
// every timestamp field).
func timeField(v interface{}) interface{} {
	if t, ok := v.(time.Time); ok {
		return t.UTC().Format("2006-01-02T15:04:05.000") + "Z"
	}
	return v
}
