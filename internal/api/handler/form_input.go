package handler

import (
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/agridynamic/admin-console/internal/core/domain"
	"github.com/agridynamic/admin-console/internal/core/service"
)

const (
	maxUploadBytes = 10 << 20
	clearSuffix    = "_clear"
)

// readDraft applies the request body to form. Multipart bodies may carry a
// file part per image field; JSON bodies carry image URLs. "<field>_clear"
// set to true removes a stored image. Keys outside the schema are ignored.
func readDraft(c echo.Context, form *service.FormController) error {
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		mf, err := c.MultipartForm()
		if err != nil {
			return domain.NewValidationError("unreadable multipart body")
		}
		return applyMultipart(form, mf)
	}

	body := map[string]any{}
	if err := c.Echo().JSONSerializer.Deserialize(c, &body); err != nil && err != io.EOF {
		return domain.NewValidationError("unreadable JSON body")
	}
	return applyValues(form, func(name string) (string, bool) {
		v, ok := body[name]
		if !ok || v == nil {
			return "", false
		}
		return stringify(v), true
	})
}

func applyMultipart(form *service.FormController, mf *multipart.Form) error {
	for _, fld := range form.Schema() {
		if !fld.IsImage() {
			continue
		}
		files := mf.File[fld.Name]
		switch {
		case len(files) > 1:
			return domain.NewValidationError("only one file per image field", fld.Name)
		case len(files) == 1:
			upload, err := readUpload(files[0])
			if err != nil {
				return err
			}
			if err := form.SetImageFile(fld.Name, upload); err != nil {
				return err
			}
		}
	}
	return applyValues(form, func(name string) (string, bool) {
		vs, ok := mf.Value[name]
		if !ok || len(vs) == 0 {
			return "", false
		}
		return vs[0], true
	})
}

func applyValues(form *service.FormController, lookup func(name string) (string, bool)) error {
	for _, fld := range form.Schema() {
		if fld.IsImage() {
			if v, ok := lookup(fld.Name + clearSuffix); ok && v == "true" {
				if err := form.ClearImage(fld.Name); err != nil {
					return err
				}
				continue
			}
			if form.Image(fld.Name).File != nil {
				continue
			}
		}

		v, ok := lookup(fld.Name)
		if !ok {
			continue
		}
		if fld.ReadOnly {
			if v != form.Value(fld.Name) {
				return fmt.Errorf("%s: %w", fld.Name, domain.ErrReadOnlyField)
			}
			continue
		}
		if err := form.SetField(fld.Name, v); err != nil {
			return err
		}
	}
	return nil
}

func readUpload(fh *multipart.FileHeader) (domain.Upload, error) {
	if fh.Size > maxUploadBytes {
		return domain.Upload{}, domain.NewValidationError("file too large", fh.Filename)
	}
	f, err := fh.Open()
	if err != nil {
		return domain.Upload{}, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
	if err != nil {
		return domain.Upload{}, fmt.Errorf("read upload: %w", err)
	}
	if len(data) > maxUploadBytes {
		return domain.Upload{}, domain.NewValidationError("file too large", fh.Filename)
	}
	return domain.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Data:        data,
	}, nil
}

// stringify flattens a JSON value into form text. Lists become the
// comma-separated form the contributors field uses.
func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	case []any:
		parts := make([]string, 0, len(t))
		for _, p := range t {
			parts = append(parts, stringify(p))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(t)
	}
}
