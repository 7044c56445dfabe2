package livequery

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// LessByTime returns a comparator ordering documents by a timestamp
// field, oldest first
func LessByTime(field string) func(a, b bson.M) bool {
	return func(a, b bson.M) bool {
		return docTime(a, field).Before(docTime(b, field))
	}
}

// LessByTimeDesc returns a comparator ordering documents by a timestamp
// field, newest first
func LessByTimeDesc(field string) func(a, b bson.M) bool {
	return func(a, b bson.M) bool {
		return docTime(b, field).Before(docTime(a, field))
	}
}

func docTime(doc bson.M, field string) time.Time {
	switch v := doc[field].(type) {
	case bson.DateTime:
		return v.Time()
	case time.Time:
		return v
	}
	return time.Time{}
}
