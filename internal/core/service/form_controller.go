package service

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/agridynamic/admin-console/internal/core/domain"
)

var fieldValidate = validator.New()

// SubmitHandler receives the full draft on a successful Submit.
type SubmitHandler func(draft domain.FormDraft) error

// FormController holds the state of one open create or edit form. It is owned
// by a single caller and is not safe for concurrent use.
type FormController struct {
	schema domain.Schema
	draft  domain.FormDraft
}

// NewFormController seeds a form from the schema defaults, overlaid with the
// values of source when editing an existing item. source may be nil.
func NewFormController(schema domain.Schema, source domain.FormSource) *FormController {
	f := &FormController{}
	f.Reseed(schema, source)
	return f
}

// Reseed re-initializes every field for a new schema or edit target. Nothing
// carries over from the previous state.
func (f *FormController) Reseed(schema domain.Schema, source domain.FormSource) {
	var seed map[string]string
	if source != nil {
		seed = source.FormValues()
	}
	f.schema = schema
	f.draft = domain.FormDraft{
		Values: make(map[string]string, len(schema)),
		Images: map[string]domain.ImageValue{},
	}
	for _, fld := range schema {
		v := fld.Default
		if sv := seed[fld.Name]; sv != "" {
			v = sv
		}
		f.draft.Values[fld.Name] = v
		if fld.IsImage() {
			f.draft.Images[fld.Name] = domain.ImageValue{URL: v}
		}
	}
}

func (f *FormController) Schema() domain.Schema { return f.schema }

// Draft returns a copy of the current state.
func (f *FormController) Draft() domain.FormDraft { return f.draft.Clone() }

// Value returns the current string value of a field.
func (f *FormController) Value(name string) string { return f.draft.Values[name] }

// Image returns the state of an image field.
func (f *FormController) Image(name string) domain.ImageValue { return f.draft.Images[name] }

// SetField writes a string value. For image fields value is a URL and drops
// any chosen file.
func (f *FormController) SetField(name, value string) error {
	fld, err := f.writable(name)
	if err != nil {
		return err
	}
	switch k := fld.Kind.(type) {
	case domain.ImageUpload:
		return f.SetImageURL(name, value)
	case domain.Select:
		value = k.Canonical(value)
		if value != "" && !k.Allows(value) {
			return domain.NewValidationError(fmt.Sprintf("%q is not a valid option", value), name)
		}
	}
	f.draft.Values[name] = value
	return nil
}

// SetImageFile chooses an uploaded file and clears the URL.
func (f *FormController) SetImageFile(name string, upload domain.Upload) error {
	if _, err := f.imageField(name); err != nil {
		return err
	}
	u := upload
	f.draft.Images[name] = domain.ImageValue{File: &u}
	f.draft.Values[name] = ""
	return nil
}

// SetImageURL chooses a URL and drops the file.
func (f *FormController) SetImageURL(name, url string) error {
	if _, err := f.imageField(name); err != nil {
		return err
	}
	url = strings.TrimSpace(url)
	f.draft.Images[name] = domain.ImageValue{URL: url}
	f.draft.Values[name] = url
	return nil
}

// ClearImage asks for the stored image to be removed on submit.
func (f *FormController) ClearImage(name string) error {
	if _, err := f.imageField(name); err != nil {
		return err
	}
	f.draft.Images[name] = domain.ImageValue{Clear: true}
	f.draft.Values[name] = ""
	return nil
}

// Validate checks required fields first, then the format of email and url
// inputs.
func (f *FormController) Validate() error {
	var missing, invalid []string
	for _, fld := range f.schema {
		if fld.IsImage() {
			if fld.Required && !f.draft.Images[fld.Name].Present() {
				missing = append(missing, fld.Name)
			}
			continue
		}
		v := strings.TrimSpace(f.draft.Values[fld.Name])
		if v == "" {
			if fld.Required {
				missing = append(missing, fld.Name)
			}
			continue
		}
		if tag := formatTag(fld); tag != "" && fieldValidate.Var(v, tag) != nil {
			invalid = append(invalid, fld.Name)
		}
	}
	if len(missing) > 0 {
		return domain.NewValidationError("", missing...)
	}
	if len(invalid) > 0 {
		return domain.NewValidationError("invalid format", invalid...)
	}
	return nil
}

// Submit validates the form and hands a copy of the draft to submit. The form
// keeps its state either way; closing it is the caller's decision.
func (f *FormController) Submit(submit SubmitHandler) error {
	if err := f.Validate(); err != nil {
		return err
	}
	return submit(f.draft.Clone())
}

func (f *FormController) writable(name string) (domain.Field, error) {
	fld, ok := f.schema.Field(name)
	if !ok {
		return domain.Field{}, fmt.Errorf("%s: %w", name, domain.ErrUnknownField)
	}
	if fld.ReadOnly {
		return domain.Field{}, fmt.Errorf("%s: %w", name, domain.ErrReadOnlyField)
	}
	return fld, nil
}

func (f *FormController) imageField(name string) (domain.Field, error) {
	fld, err := f.writable(name)
	if err != nil {
		return fld, err
	}
	if !fld.IsImage() {
		return fld, domain.NewValidationError("not an image field", name)
	}
	return fld, nil
}

func formatTag(fld domain.Field) string {
	t, ok := fld.Kind.(domain.TextInput)
	if !ok {
		return ""
	}
	switch t.Type {
	case domain.InputEmail:
		return "email"
	case domain.InputURL:
		return "url"
	}
	return ""
}
