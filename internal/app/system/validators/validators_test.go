package validators

import (
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestCommandErrorClassifiers(t *testing.T) {
	tests := []struct {
		name string
		fn   func(error) bool
		err  error
		want bool
	}{
		{"nil", isNamespaceExistsErr, nil, false},
		{"exists by code", isNamespaceExistsErr, mongo.CommandError{Code: 48}, true},
		{"exists by text", isNamespaceExistsErr, errors.New("Collection already exists"), true},
		{"unrelated", isNamespaceExistsErr, errors.New("timeout"), false},
		{"no such command by code", isNoSuchCommand, mongo.CommandError{Code: 59}, true},
		{"no such command by text", isNoSuchCommand, errors.New("no such command: collMod"), true},
		{"not implemented by code", isNotImplemented, mongo.CommandError{Code: 115}, true},
		{"not supported by text", isNotImplemented, mongo.CommandError{Message: "Feature not supported"}, true},
		{"other code", isNotImplemented, mongo.CommandError{Code: 2, Message: "bad value"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(tt.err); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNodesSchema_RequiredFields(t *testing.T) {
	schema := nodesSchema()["$jsonSchema"].(bson.M)
	required := map[string]bool{}
	for _, f := range schema["required"].(bson.A) {
		required[f.(string)] = true
	}
	for _, f := range []string{"type", "name", "name_lowercase", "parent_id", "order", "is_active"} {
		if !required[f] {
			t.Errorf("nodes schema should require %q", f)
		}
	}
}
