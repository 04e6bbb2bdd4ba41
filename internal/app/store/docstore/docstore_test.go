package docstore

import (
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestIsPermissionDenied(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"generic", errors.New("boom"), false},
		{"unauthorized code", mongo.CommandError{Code: 13, Message: "not authorized on db"}, true},
		{"auth failed code", mongo.CommandError{Code: 18, Message: "Authentication failed"}, true},
		{"other command error", mongo.CommandError{Code: 11000, Message: "duplicate key"}, false},
		{"keyword match", errors.New("command find not authorized"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isPermissionDenied(tt.err); got != tt.want {
				t.Errorf("isPermissionDenied(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsSortUnsupported(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"generic", errors.New("boom"), false},
		{"no query plans", mongo.CommandError{Code: 291, Message: "error processing query"}, true},
		{"sort memory", mongo.CommandError{Code: 292, Message: "Sort exceeded memory limit"}, true},
		{"legacy sort memory", mongo.CommandError{Code: 17144, Message: "Sort operation used more than the maximum"}, true},
		{"keyword match", errors.New("Executor error: Sort exceeded memory limit, add an index"), true},
		{"permission error", mongo.CommandError{Code: 13, Message: "not authorized"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isSortUnsupported(tt.err); got != tt.want {
				t.Errorf("isSortUnsupported(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestBuildFilter(t *testing.T) {
	oid := primitive.NewObjectID()
	q := Query{
		Filters: []Filter{
			{Field: "organization_id", Value: oid},
			{Field: "role", Value: "student"},
		},
	}
	filter := buildFilter(q)
	if filter["organization_id"] != oid {
		t.Errorf("organization_id filter missing: %v", filter)
	}
	if filter["role"] != "student" {
		t.Errorf("role filter missing: %v", filter)
	}
}

func TestBuildFilter_StartAfter(t *testing.T) {
	q := Query{
		Order:      &Order{Field: "title_ci"},
		StartAfter: "algebra",
	}
	filter := buildFilter(q)
	rng, ok := filter["title_ci"].(bson.M)
	if !ok {
		t.Fatalf("expected range filter on title_ci, got %v", filter)
	}
	if rng["$gt"] != "algebra" {
		t.Errorf("ascending StartAfter must use $gt: %v", rng)
	}

	q.Order.Desc = true
	rng = buildFilter(q)["title_ci"].(bson.M)
	if rng["$lt"] != "algebra" {
		t.Errorf("descending StartAfter must use $lt: %v", rng)
	}
}

func TestIDHandling(t *testing.T) {
	if !isZeroID(nil) || !isZeroID("") || !isZeroID(primitive.NilObjectID) {
		t.Error("zero ids not detected")
	}
	oid := primitive.NewObjectID()
	if isZeroID(oid) || isZeroID("user-1") {
		t.Error("non-zero ids reported as zero")
	}
	if idString(oid) != oid.Hex() {
		t.Error("ObjectID should stringify as hex")
	}
	if idString("sub-123") != "sub-123" {
		t.Error("string ids pass through")
	}
}

func TestDecodeAll(t *testing.T) {
	type row struct {
		Name string `bson:"name"`
	}
	raw1, _ := bson.Marshal(row{Name: "a"})
	raw2, _ := bson.Marshal(row{Name: "b"})

	rows, err := DecodeAll[row]([]bson.Raw{raw1, raw2})
	if err != nil {
		t.Fatalf("DecodeAll: %v", err)
	}
	if len(rows) != 2 || rows[0].Name != "a" || rows[1].Name != "b" {
		t.Errorf("unexpected rows: %+v", rows)
	}
}
