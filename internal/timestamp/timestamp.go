// Package timestamp renders instants as filesystem-safe, sortable strings
// used to name recording chunks.
package timestamp

import (
	"fmt"
	"time"
)

// Format renders t as YYYY-MM-DDTHH_MM_SS[.ffffff][Z]. The fractional part
// is included only when t has non-zero microseconds. The trailing Z marks an
// instant that is explicitly UTC; a zone that merely has a zero offset does
// not qualify.
func Format(t time.Time) string {
	s := t.Format("2006-01-02T15_04_05")

	if micro := t.Nanosecond() / int(time.Microsecond); micro != 0 {
		s += fmt.Sprintf(".%06d", micro)
	}

	if t.Location() == time.UTC {
		s += "Z"
	}

	return s
}

// Filename builds the chunk file name for an instant: {prefix}_{timestamp}.wav
func Filename(prefix string, t time.Time) string {
	return prefix + "_" + Format(t) + ".wav"
}
