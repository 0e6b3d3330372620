package domain

import "encoding/json"

// InputType is the HTML-ish input type of a single-line text field.
type InputType string

const (
	InputText     InputType = "text"
	InputEmail    InputType = "email"
	InputPassword InputType = "password"
	InputURL      InputType = "url"
)

// FieldKind is the closed set of form field variants.
type FieldKind interface {
	kindName() string
}

// TextInput is a single-line input.
type TextInput struct {
	Type InputType
}

// Option is one choice of a Select.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Select restricts the value to one of Options. Aliases maps values older
// clients still send onto current option values.
type Select struct {
	Options []Option
	Aliases map[string]string
}

// Textarea is a multi-line input.
type Textarea struct {
	Rows int
}

// ImageUpload holds either an uploaded file or a URL, never both.
type ImageUpload struct{}

func (k TextInput) kindName() string {
	if k.Type == "" {
		return string(InputText)
	}
	return string(k.Type)
}
func (Select) kindName() string      { return "select" }
func (Textarea) kindName() string    { return "textarea" }
func (ImageUpload) kindName() string { return "imageUpload" }

// Canonical resolves an alias to its option value. Other values are returned
// unchanged.
func (k Select) Canonical(v string) string {
	if to, ok := k.Aliases[v]; ok {
		return to
	}
	return v
}

// Allows reports whether v is one of the select options.
func (k Select) Allows(v string) bool {
	for _, o := range k.Options {
		if o.Value == v {
			return true
		}
	}
	return false
}

// Field describes one entry of a form schema.
type Field struct {
	Name     string
	Label    string
	Kind     FieldKind
	Default  string
	Required bool
	ReadOnly bool
}

// IsImage reports whether the field is an ImageUpload.
func (f Field) IsImage() bool {
	_, ok := f.Kind.(ImageUpload)
	return ok
}

// TypeName is the wire name of the field kind ("text", "select", ...).
func (f Field) TypeName() string {
	if f.Kind == nil {
		return string(InputText)
	}
	return f.Kind.kindName()
}

func (f Field) MarshalJSON() ([]byte, error) {
	out := struct {
		Name         string   `json:"name"`
		Label        string   `json:"label"`
		Type         string   `json:"type"`
		DefaultValue string   `json:"defaultValue"`
		Required     bool     `json:"required,omitempty"`
		ReadOnly     bool     `json:"readOnly,omitempty"`
		Options      []Option `json:"options,omitempty"`
		Rows         int      `json:"rows,omitempty"`
	}{
		Name:         f.Name,
		Label:        f.Label,
		Type:         f.TypeName(),
		DefaultValue: f.Default,
		Required:     f.Required,
		ReadOnly:     f.ReadOnly,
	}
	switch k := f.Kind.(type) {
	case Select:
		out.Options = k.Options
	case Textarea:
		out.Rows = k.Rows
	}
	return json.Marshal(out)
}

// Schema is an ordered field list.
type Schema []Field

// Field looks a field up by name.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Upload is a binary file picked for an image field.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ImageValue is the state of an ImageUpload field. At most one of File and URL
// is set. Clear asks an update to remove the stored image.
type ImageValue struct {
	File  *Upload
	URL   string
	Clear bool
}

// Present reports whether a source is chosen.
func (v ImageValue) Present() bool { return v.File != nil || v.URL != "" }

// FormDraft is the submitted state of a form: one Values entry per schema
// field (image fields hold their URL there) plus the image state.
type FormDraft struct {
	Values map[string]string
	Images map[string]ImageValue
}

// Clone returns a deep-enough copy for handing to a submit handler.
func (d FormDraft) Clone() FormDraft {
	out := FormDraft{
		Values: make(map[string]string, len(d.Values)),
		Images: make(map[string]ImageValue, len(d.Images)),
	}
	for k, v := range d.Values {
		out.Values[k] = v
	}
	for k, v := range d.Images {
		out.Images[k] = v
	}
	return out
}
