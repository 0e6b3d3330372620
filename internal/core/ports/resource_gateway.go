package ports

import (
	"context"
	"strings"

	"github.com/agridynamic/admin-console/internal/core/domain"
)

// FormValue is one plain field of a request payload.
type FormValue struct {
	Name  string
	Value string
}

// FilePart is a binary attachment of a multipart payload.
type FilePart struct {
	Field  string
	Upload domain.Upload
}

// Payload is a create/update request body. It is sent as a JSON object of
// strings unless File is set, in which case it is sent as multipart/form-data.
type Payload struct {
	Fields []FormValue
	File   *FilePart
}

// Multipart reports whether the payload carries a binary file.
func (p Payload) Multipart() bool { return p.File != nil }

// Set replaces or appends a field.
func (p *Payload) Set(name, value string) {
	for i := range p.Fields {
		if p.Fields[i].Name == name {
			p.Fields[i].Value = value
			return
		}
	}
	p.Fields = append(p.Fields, FormValue{Name: name, Value: value})
}

// Get returns the value of a field and whether it is present.
func (p Payload) Get(name string) (string, bool) {
	for _, f := range p.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Object returns the plain fields as a JSON-ready map.
func (p Payload) Object() map[string]string {
	out := make(map[string]string, len(p.Fields))
	for _, f := range p.Fields {
		out[f.Name] = f.Value
	}
	return out
}

func (p Payload) String() string {
	names := make([]string, 0, len(p.Fields)+1)
	for _, f := range p.Fields {
		names = append(names, f.Name)
	}
	if p.File != nil {
		names = append(names, p.File.Field+"(file)")
	}
	return "payload[" + strings.Join(names, ",") + "]"
}

// ResourceGateway is the backend CRUD surface of one resource collection.
type ResourceGateway[T domain.Item] interface {
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id string) (T, error)
	// Create and Update return the item as stored by the server. A server that
	// replies without a body yields the zero T.
	Create(ctx context.Context, p Payload) (T, error)
	Update(ctx context.Context, id string, p Payload) (T, error)
	Delete(ctx context.Context, id string) error
}
