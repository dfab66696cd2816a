// Package inputval validates request payloads using waffle/pantry/validate.
//
// Define an input struct with validate tags, decode the request into it and
// call Validate to get messages that can be returned to API callers as-is.
//
//	type CreateUserInput struct {
//	    Phone    string `json:"phone" validate:"phone10" label:"Phone"`
//	    Password string `json:"password" validate:"min=6" label:"Password"`
//	}
//
//	if res := inputval.Validate(input); res.HasErrors() {
//	    jsonutil.BadRequest(w, res.First())
//	    return
//	}
package inputval

import (
	"net/url"
	"reflect"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/dalemusser/stratacontent/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/validate"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Result holds validation results with user-facing messages.
type Result struct {
	Errors []FieldError
}

// FieldError is a validation error for a single field.
type FieldError struct {
	Field   string
	Label   string
	Message string
}

// HasErrors returns true if there are any validation errors.
func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// First returns the first error message, or "" if there are none.
func (r *Result) First() string {
	if len(r.Errors) > 0 {
		return r.Errors[0].Message
	}
	return ""
}

// All returns all error messages joined with "; ".
func (r *Result) All() string {
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}

var (
	customValidator *validate.Validator
	validatorOnce   sync.Once
)

func stringRule(fn func(string) bool) func(any) bool {
	return func(value any) bool {
		s, ok := value.(string)
		return ok && fn(s)
	}
}

// getValidator returns the shared validator with the custom rules.
func getValidator() *validate.Validator {
	validatorOnce.Do(func() {
		v := validate.New(validate.WithStopOnFirstError())
		v.RegisterRuleFunc("phone10", stringRule(IsValidPhone), "phone10")
		v.RegisterRuleFunc("coursename", stringRule(IsValidCourseName), "coursename")
		v.RegisterRuleFunc("nodetype", stringRule(models.IsValidNodeType), "nodetype")
		v.RegisterRuleFunc("announcementtype", stringRule(models.IsValidAnnouncementType), "announcementtype")
		v.RegisterRuleFunc("httpurl", stringRule(IsValidHTTPURL), "httpurl")
		v.RegisterRuleFunc("objectid", stringRule(IsValidObjectID), "objectid")
		customValidator = v
	})
	return customValidator
}

// Validate validates a struct and returns a Result. Rules come from the
// `validate` tag, display names from the optional `label` tag. A `msg` tag
// replaces the generated message for every rule on that field.
//
// Built-in rules (pantry/validate): required, email, oneof, min, max.
// Custom rules registered here:
//   - phone10: exactly ten ASCII digits
//   - coursename: at least two characters after trimming
//   - nodetype: folder, video, pdf or link
//   - announcementtype: announcement, info, video, pdf or folder
//   - httpurl: an http:// or https:// URL
//   - objectid: a MongoDB ObjectID hex string
func Validate(s any) *Result {
	result := &Result{}

	err := getValidator().Struct(s)
	if err == nil {
		return result
	}

	labels, msgs := getFieldTags(s)
	if errs, ok := err.(validate.Errors); ok {
		for _, e := range errs {
			label := labels[e.Field]
			if label == "" {
				label = e.Field
			}
			msg := msgs[e.Field]
			if msg == "" {
				msg = formatMessage(label, e.Rule, e.Param)
			}
			result.Errors = append(result.Errors, FieldError{
				Field:   e.Field,
				Label:   label,
				Message: msg,
			})
		}
	}
	return result
}

// getFieldTags maps field names (json name when tagged) to their label and
// msg tags.
func getFieldTags(s any) (labels, msgs map[string]string) {
	labels = make(map[string]string)
	msgs = make(map[string]string)

	val := reflect.ValueOf(s)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return labels, msgs
	}

	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		fieldName := field.Name
		if name, _, _ := strings.Cut(field.Tag.Get("json"), ","); name != "" && name != "-" {
			fieldName = name
		}
		if label := field.Tag.Get("label"); label != "" {
			labels[fieldName] = label
		}
		if msg := field.Tag.Get("msg"); msg != "" {
			msgs[fieldName] = msg
		}
	}
	return labels, msgs
}

func formatMessage(label, rule, param string) string {
	switch rule {
	case "required", "coursename":
		return label + " is required"
	case "email":
		return "A valid email address is required"
	case "oneof", "enum":
		return label + " must be one of: " + strings.ReplaceAll(param, " ", ", ")
	case "min":
		return label + " must be at least " + param + " characters"
	case "max":
		return label + " must be at most " + param + " characters"
	case "phone10":
		return label + " must be 10 digits"
	case "nodetype":
		return label + " must be one of: folder, video, pdf, link"
	case "announcementtype":
		return label + " must be one of: announcement, info, video, pdf, folder"
	case "httpurl":
		return label + " must be a valid URL starting with http:// or https://"
	case "objectid":
		return label + " is not a valid ID"
	default:
		return label + " is invalid"
	}
}

// IsValidPhone reports whether s is exactly ten ASCII digits.
func IsValidPhone(s string) bool {
	if len(s) != 10 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// IsValidCourseName reports whether s has at least two characters once
// surrounding whitespace is removed.
func IsValidCourseName(s string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(s)) >= 2
}

// IsValidHTTPURL checks if s is a valid http:// or https:// URL.
func IsValidHTTPURL(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// IsValidObjectID checks if s is a valid MongoDB ObjectID hex.
func IsValidObjectID(s string) bool {
	_, err := primitive.ObjectIDFromHex(strings.TrimSpace(s))
	return err == nil
}
