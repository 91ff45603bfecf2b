package mongo

import (
	"alcyxob/fitlog/internal/domain"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// decodeEntry maps a stored document onto domain.Entry without trusting its shape.
// Older web clients stored the numeric fields as strings, so numeric strings are
// parsed. Anything else that is not a finite number reads as 0 and is reported
// back as a problem for the caller to log.
func decodeEntry(raw bson.Raw) (domain.Entry, []string) {
	var entry domain.Entry
	var problems []string

	if v, err := raw.LookupErr("_id"); err == nil && v.Type == bson.TypeObjectID {
		entry.ID = v.ObjectID()
	}
	if v, err := raw.LookupErr("userId"); err == nil && v.Type == bson.TypeObjectID {
		entry.OwnerID = v.ObjectID()
	}

	if v, err := raw.LookupErr("userEmail"); err != nil {
		problems = append(problems, "missing userEmail")
	} else if s, ok := v.StringValueOK(); ok {
		entry.OwnerEmail = s
	} else {
		problems = append(problems, fmt.Sprintf("userEmail has type %s", v.Type))
	}

	numbers := []struct {
		key string
		dst *float64
	}{
		{"steps", &entry.Steps},
		{"waterIntake", &entry.WaterIntake},
		{"calories", &entry.Calories},
	}
	for _, n := range numbers {
		v, err := raw.LookupErr(n.key)
		if err != nil {
			problems = append(problems, "missing "+n.key+", counted as 0")
			continue
		}
		f, ok := coerceNumber(v)
		if !ok {
			problems = append(problems, fmt.Sprintf("%s is not numeric (%s), counted as 0", n.key, v.Type))
		}
		*n.dst = f
	}

	if v, err := raw.LookupErr("timestamp"); err != nil {
		problems = append(problems, "missing timestamp")
	} else if t, ok := coerceTime(v); ok {
		entry.RecordedAt = t
	} else {
		problems = append(problems, fmt.Sprintf("timestamp has type %s", v.Type))
	}

	return entry, problems
}

// coerceNumber converts a BSON value to a finite float64. It returns 0 and false
// when the value cannot be read as a number.
func coerceNumber(v bson.RawValue) (float64, bool) {
	var f float64
	switch v.Type {
	case bson.TypeDouble:
		f = v.Double()
	case bson.TypeInt32:
		f = float64(v.Int32())
	case bson.TypeInt64:
		f = float64(v.Int64())
	case bson.TypeDecimal128:
		parsed, err := strconv.ParseFloat(v.Decimal128().String(), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	case bson.TypeString:
		s := strings.TrimSpace(v.StringValue())
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func coerceTime(v bson.RawValue) (time.Time, bool) {
	switch v.Type {
	case bson.TypeDateTime:
		return v.Time().UTC(), true
	case bson.TypeTimestamp:
		sec, _ := v.Timestamp()
		return time.Unix(int64(sec), 0).UTC(), true
	case bson.TypeString:
		t, err := time.Parse(time.RFC3339Nano, v.StringValue())
		if err != nil {
			return time.Time{}, false
		}
		return t.UTC(), true
	}
	return time.Time{}, false
}
