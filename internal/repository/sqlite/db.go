// Package sqlite implements the client repositories over the local
// transactional store. Reads go straight to the SQLite handle; mutations are
// handed back as prepared write operations for the service layer to commit
// in a single batch.
package sqlite

import (
	"database/sql"
	"time"
)

// notDeleted filters tombstones out of every default read.
const notDeleted = "_status != 'deleted'"

// statusOnUpdate keeps a never-pushed row 'created', leaves tombstones
// alone, and marks everything else 'updated', so the push payload
// classifies each row correctly.
const statusOnUpdate = "CASE _status WHEN 'created' THEN 'created' WHEN 'deleted' THEN 'deleted' ELSE 'updated' END"

func millis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}

func nullInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullFloat(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullMillis(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UnixMilli()
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func timePtr(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := fromMillis(v.Int64)
	return &t
}
