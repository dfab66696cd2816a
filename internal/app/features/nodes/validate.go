package nodes

import (
	"bytes"
	"encoding/json"
	"errors"
	"regexp"
	"sort"
	"strings"

	"github.com/dalemusser/stratacontent/internal/app/system/inputval"
	"github.com/dalemusser/stratacontent/internal/domain/models"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxNameLength bounds node names.
const MaxNameLength = 200

var noSlash = regexp.MustCompile(`^[^/]+$`)

// createRequest is the POST / body.
type createRequest struct {
	Type     string `json:"type"`
	Name     string `json:"name"`
	ParentID string `json:"parentId"`
	Order    *int   `json:"order"`
	IsActive *bool  `json:"isActive"`
	URL      string `json:"url"`
	Mime     string `json:"mime"`
	CDNURL   string `json:"cdnUrl"`
}

func (req *createRequest) normalize() {
	req.Type = strings.ToLower(strings.TrimSpace(req.Type))
	req.Name = strings.TrimSpace(req.Name)
	req.ParentID = strings.TrimSpace(req.ParentID)
	req.URL = strings.TrimSpace(req.URL)
	req.Mime = strings.TrimSpace(req.Mime)
	req.CDNURL = strings.TrimSpace(req.CDNURL)
}

func (req *createRequest) validate() error {
	isFile := req.Type != string(models.NodeFolder)
	return validation.ValidateStruct(req,
		validation.Field(&req.Type, validation.Required, nodeTypeRule),
		validation.Field(&req.Name,
			validation.Required,
			validation.Length(1, MaxNameLength),
			validation.Match(noSlash).Error("name cannot contain slashes"),
		),
		validation.Field(&req.ParentID, objectIDRule),
		validation.Field(&req.Order, validation.Min(0)),
		validation.Field(&req.URL, validation.When(isFile, httpURLRule)),
		validation.Field(&req.CDNURL, validation.When(isFile, httpURLRule)),
	)
}

// updateRequest is the PATCH /{id} body. Absent fields are left alone.
type updateRequest struct {
	Type     *string    `json:"type"`
	Name     *string    `json:"name"`
	ParentID optionalID `json:"parentId"`
	Order    *int       `json:"order"`
	IsActive *bool      `json:"isActive"`
	URL      *string    `json:"url"`
	Mime     *string    `json:"mime"`
	CDNURL   *string    `json:"cdnUrl"`
}

func (req *updateRequest) empty() bool {
	return req.Type == nil && req.Name == nil && !req.ParentID.Set &&
		req.Order == nil && req.IsActive == nil && req.URL == nil &&
		req.Mime == nil && req.CDNURL == nil
}

func (req *updateRequest) normalize() {
	trim := func(p *string) {
		if p != nil {
			*p = strings.TrimSpace(*p)
		}
	}
	trim(req.Name)
	trim(req.URL)
	trim(req.Mime)
	trim(req.CDNURL)
	if req.Type != nil {
		*req.Type = strings.ToLower(strings.TrimSpace(*req.Type))
	}
}

func (req *updateRequest) validate() error {
	var rules []*validation.FieldRules
	if req.Type != nil {
		rules = append(rules, validation.Field(&req.Type, validation.Required, nodeTypeRule))
	}
	if req.Name != nil {
		rules = append(rules, validation.Field(&req.Name,
			validation.Required,
			validation.Length(1, MaxNameLength),
			validation.Match(noSlash).Error("name cannot contain slashes"),
		))
	}
	if req.Order != nil {
		rules = append(rules, validation.Field(&req.Order, validation.Min(0)))
	}
	if req.URL != nil {
		rules = append(rules, validation.Field(&req.URL, httpURLRule))
	}
	if req.CDNURL != nil {
		rules = append(rules, validation.Field(&req.CDNURL, httpURLRule))
	}
	return validation.ValidateStruct(req, rules...)
}

// optionalID distinguishes an absent parentId from an explicit null.
type optionalID struct {
	Set bool
	ID  *primitive.ObjectID
}

func (o *optionalID) UnmarshalJSON(b []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		o.ID = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return errors.New("parentId must be a string or null")
	}
	s = strings.TrimSpace(s)
	if s == "" {
		o.ID = nil
		return nil
	}
	oid, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return errors.New("parentId must be a valid id")
	}
	o.ID = &oid
	return nil
}

// stringValue dereferences a rule's value to a string; non-strings and nil
// pointers yield "".
func stringValue(value any) string {
	v, _ := validation.Indirect(value)
	s, _ := v.(string)
	return s
}

var nodeTypeRule = validation.By(func(value any) error {
	s := stringValue(value)
	if s == "" || models.IsValidNodeType(s) {
		return nil
	}
	return errors.New("must be one of folder, video, pdf, link")
})

var objectIDRule = validation.By(func(value any) error {
	s := stringValue(value)
	if s == "" || inputval.IsValidObjectID(s) {
		return nil
	}
	return errors.New("must be a valid id")
})

var httpURLRule = validation.By(func(value any) error {
	s := stringValue(value)
	if s == "" || inputval.IsValidHTTPURL(s) {
		return nil
	}
	return errors.New("must be an http(s) url")
})

// validationMessage renders the first field error as "field: message".
func validationMessage(err error) string {
	var errs validation.Errors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return err.Error()
	}
	fields := make([]string, 0, len(errs))
	for f := range errs {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields[0] + ": " + errs[fields[0]].Error()
}
