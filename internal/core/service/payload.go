package service

import (
	"fmt"
	"strings"

	"github.com/agridynamic/admin-console/internal/core/domain"
	"github.com/agridynamic/admin-console/internal/core/ports"
)

// BuildPayload converts a submitted draft into a request body.
//
// previous holds the item's last-known form values and is nil on create. An
// image URL is sent on update only when it differs from previous; a file
// always wins over a URL and switches the payload to multipart. A
// ValidationError lists every missing required field in schema order.
func BuildPayload(schema domain.Schema, draft domain.FormDraft, previous map[string]string, opt ports.ImageOptimizer) (ports.Payload, error) {
	var (
		p       ports.Payload
		missing []string
		isEdit  = previous != nil
	)

	for _, f := range schema {
		if !f.IsImage() {
			v := draft.Values[f.Name]
			if f.Required && strings.TrimSpace(v) == "" {
				missing = append(missing, f.Name)
				continue
			}
			p.Fields = append(p.Fields, ports.FormValue{Name: f.Name, Value: v})
			continue
		}

		img := draft.Images[f.Name]
		url := img.URL
		if url == "" && img.File == nil && !img.Clear {
			url = draft.Values[f.Name]
		}

		switch {
		case img.File != nil:
			if p.File != nil {
				return ports.Payload{}, domain.NewValidationError("only one file can be uploaded per request", p.File.Field, f.Name)
			}
			upload := *img.File
			if opt != nil {
				optimized, err := opt.Optimize(upload)
				if err != nil {
					return ports.Payload{}, fmt.Errorf("optimize %s: %w", f.Name, err)
				}
				upload = optimized
			}
			p.File = &ports.FilePart{Field: f.Name, Upload: upload}

		case img.Clear:
			if f.Required {
				missing = append(missing, f.Name)
				continue
			}
			if isEdit {
				p.Fields = append(p.Fields, ports.FormValue{Name: f.Name, Value: ""})
			}

		case url != "":
			if isEdit && url == previous[f.Name] {
				continue
			}
			p.Fields = append(p.Fields, ports.FormValue{Name: f.Name, Value: url})

		default:
			// Nothing chosen. On edit this leaves the stored image alone,
			// which only satisfies a required field if one is stored.
			if f.Required && (!isEdit || previous[f.Name] == "") {
				missing = append(missing, f.Name)
			}
		}
	}

	if len(missing) > 0 {
		return ports.Payload{}, domain.NewValidationError("", missing...)
	}
	return p, nil
}
