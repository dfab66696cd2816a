package nodes

import (
	"strings"
	"testing"
)

func strPtr(s string) *string { return &s }

func TestStringValue(t *testing.T) {
	var nilStr *string
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"string", "video", "video"},
		{"pointer", strPtr("pdf"), "pdf"},
		{"nil pointer", nilStr, ""},
		{"not a string", 42, ""},
		{"nil", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stringValue(tt.value); got != tt.want {
				t.Errorf("stringValue() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUpdateRequest_Validate(t *testing.T) {
	tests := []struct {
		name string
		req  updateRequest
		want string // empty means valid
	}{
		{"good type", updateRequest{Type: strPtr("link")}, ""},
		{"bad type", updateRequest{Type: strPtr("sheet")}, "type"},
		{"good url", updateRequest{URL: strPtr("https://example.com/a")}, ""},
		{"bad url", updateRequest{URL: strPtr("ftp://host/a")}, "url"},
		{"blank url", updateRequest{URL: strPtr("")}, ""},
		{"bad cdn url", updateRequest{CDNURL: strPtr("not a url")}, "cdnUrl"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.validate()
			if tt.want == "" {
				if err != nil {
					t.Errorf("validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.HasPrefix(validationMessage(err), tt.want+":") {
				t.Errorf("validate() error = %v, want a %s error", err, tt.want)
			}
		})
	}
}

func TestCreateRequest_ValidateParentID(t *testing.T) {
	req := createRequest{Type: "folder", Name: "Week 1", ParentID: "nope"}
	if err := req.validate(); err == nil || !strings.HasPrefix(validationMessage(err), "parentId:") {
		t.Errorf("validate() error = %v, want a parentId error", err)
	}

	req.ParentID = "507f1f77bcf86cd799439011"
	if err := req.validate(); err != nil {
		t.Errorf("validate() error = %v, want nil", err)
	}
}
