package contact

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"mime"
	"net/url"
	"unicode/utf8"

	"github.com/asaskevich/govalidator"
	"github.com/microcosm-cc/bluemonday"
)

const (
	maxNameLength    = 30
	maxCountryLength = 30
)

var (
	ErrMalformedBody          = errors.New("malformed form body")
	ErrUnsupportedContentType = errors.New("unsupported content type")
)

// Form is a contact submission as received from the website.
type Form struct {
	Name     string  `json:"name"`
	Country  string  `json:"country"`
	Email    string  `json:"email"`
	Message  string  `json:"message"`
	Language *string `json:"language,omitempty"`

	missing map[string]bool
}

// requiredFields must be present in a decoded body, even if empty.
var requiredFields = []string{"name", "country", "email", "message"}

type wireForm struct {
	Name     *string `json:"name"`
	Country  *string `json:"country"`
	Email    *string `json:"email"`
	Message  *string `json:"message"`
	Language *string `json:"language"`
}

// FieldError marks a single form field that failed validation.
type FieldError struct {
	Field string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("Invalid input in the %s field", e.Field)
}

// Decode parses a request body according to its content type. An empty
// content type is treated as form-encoded.
func Decode(contentType string, body []byte) (*Form, error) {
	mediaType := "application/x-www-form-urlencoded"

	if contentType != "" {
		mt, _, err := mime.ParseMediaType(contentType)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnsupportedContentType, err)
		}

		mediaType = mt
	}

	switch mediaType {
	case "application/x-www-form-urlencoded":
		values, err := url.ParseQuery(string(body))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedBody, err)
		}

		form := &Form{
			Name:    values.Get("name"),
			Country: values.Get("country"),
			Email:   values.Get("email"),
			Message: values.Get("message"),
		}

		for _, field := range requiredFields {
			if !values.Has(field) {
				form.markMissing(field)
			}
		}

		if values.Has("language") {
			lang := values.Get("language")
			form.Language = &lang
		}

		return form, nil
	case "application/json":
		var wire wireForm
		if err := json.Unmarshal(body, &wire); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedBody, err)
		}

		form := &Form{Language: wire.Language}
		form.Name = form.take("name", wire.Name)
		form.Country = form.take("country", wire.Country)
		form.Email = form.take("email", wire.Email)
		form.Message = form.take("message", wire.Message)

		return form, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedContentType, mediaType)
	}
}

func (f *Form) markMissing(field string) {
	if f.missing == nil {
		f.missing = make(map[string]bool, len(requiredFields))
	}

	f.missing[field] = true
}

func (f *Form) take(field string, v *string) string {
	if v == nil {
		f.markMissing(field)

		return ""
	}

	return *v
}

// Validate returns one FieldError per invalid field, in field order. A
// required field absent from the decoded body is invalid even when empty
// values would otherwise pass.
func (f *Form) Validate() []FieldError {
	var errs []FieldError

	if f.missing["name"] || utf8.RuneCountInString(f.Name) > maxNameLength {
		errs = append(errs, FieldError{Field: "name"})
	}

	if f.missing["country"] || utf8.RuneCountInString(f.Country) > maxCountryLength {
		errs = append(errs, FieldError{Field: "country"})
	}

	if f.missing["email"] || !govalidator.IsEmail(f.Email) {
		errs = append(errs, FieldError{Field: "email"})
	}

	if f.missing["message"] || f.Message == "" {
		errs = append(errs, FieldError{Field: "message"})
	}

	return errs
}

var sanitizer = bluemonday.UGCPolicy()

// Sanitize strips unsafe HTML from the free-text fields. The relayed mail is
// plain text, so entities the policy introduces are decoded again. Email is
// left alone; Validate already restricts it to an address.
func (f *Form) Sanitize() {
	f.Name = sanitizeText(f.Name)
	f.Country = sanitizeText(f.Country)
	f.Message = sanitizeText(f.Message)

	if f.Language != nil {
		lang := sanitizeText(*f.Language)
		f.Language = &lang
	}
}

func sanitizeText(s string) string {
	return html.UnescapeString(sanitizer.Sanitize(s))
}

// Messages renders field errors the way they are reported to the caller.
func Messages(errs []FieldError) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Error())
	}

	return out
}
