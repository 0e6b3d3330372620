package service

import (
	"errors"
	"testing"

	"github.com/agridynamic/admin-console/internal/core/domain"
)

func partnerDraft(values map[string]string, logo domain.ImageValue) domain.FormDraft {
	d := domain.FormDraft{
		Values: map[string]string{"name": "", "logo": "", "link": "", "description": ""},
		Images: map[string]domain.ImageValue{"logo": logo},
	}
	for k, v := range values {
		d.Values[k] = v
	}
	return d
}

func TestBuildPayload_JSONWithURL(t *testing.T) {
	p, err := BuildPayload(PartnerDefinition().Schema, partnerDraft(
		map[string]string{"name": "FAO"}, domain.ImageValue{URL: "https://img/fao.png"},
	), nil, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if p.Multipart() {
		t.Fatalf("no file means a JSON body")
	}
	if v, _ := p.Get("logo"); v != "https://img/fao.png" {
		t.Fatalf("expected logo URL, got %q", v)
	}
	want := []string{"name", "logo", "link", "description"}
	for i, f := range p.Fields {
		if f.Name != want[i] {
			t.Fatalf("fields must follow schema order, got %s", p)
		}
	}
}

func TestBuildPayload_CreateMissingFieldsInSchemaOrder(t *testing.T) {
	_, err := BuildPayload(PartnerDefinition().Schema, partnerDraft(nil, domain.ImageValue{}), nil, nil)
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(ve.Fields) != 2 || ve.Fields[0] != "name" || ve.Fields[1] != "logo" {
		t.Fatalf("unexpected fields %v", ve.Fields)
	}
}

func TestBuildPayload_UpdateImageRules(t *testing.T) {
	schema := PartnerDefinition().Schema
	previous := map[string]string{"name": "FAO", "logo": "https://img/old.png"}

	cases := []struct {
		name     string
		logo     domain.ImageValue
		values   map[string]string
		wantSent bool
		wantVal  string
	}{
		{"unchanged url omitted", domain.ImageValue{URL: "https://img/old.png"}, nil, false, ""},
		{"untouched uses seeded value", domain.ImageValue{}, map[string]string{"logo": "https://img/old.png"}, false, ""},
		{"nothing chosen keeps stored", domain.ImageValue{}, nil, false, ""},
		{"changed url sent", domain.ImageValue{URL: "https://img/new.png"}, nil, true, "https://img/new.png"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			values := map[string]string{"name": "FAO"}
			for k, v := range tc.values {
				values[k] = v
			}
			p, err := BuildPayload(schema, partnerDraft(values, tc.logo), previous, nil)
			if err != nil {
				t.Fatalf("build: %v", err)
			}
			v, ok := p.Get("logo")
			if ok != tc.wantSent || v != tc.wantVal {
				t.Fatalf("logo sent=%v value=%q, want sent=%v value=%q", ok, v, tc.wantSent, tc.wantVal)
			}
		})
	}
}

func TestBuildPayload_ClearImage(t *testing.T) {
	optional := domain.Schema{
		{Name: "name", Kind: domain.TextInput{}, Required: true},
		{Name: "banner", Kind: domain.ImageUpload{}},
	}
	draft := domain.FormDraft{
		Values: map[string]string{"name": "x", "banner": ""},
		Images: map[string]domain.ImageValue{"banner": {Clear: true}},
	}
	p, err := BuildPayload(optional, draft, map[string]string{"banner": "https://img/b.png"}, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if v, ok := p.Get("banner"); !ok || v != "" {
		t.Fatalf("clear must send an empty value, got %q (sent=%v)", v, ok)
	}

	_, err = BuildPayload(PartnerDefinition().Schema, partnerDraft(
		map[string]string{"name": "FAO"}, domain.ImageValue{Clear: true},
	), map[string]string{"logo": "https://img/old.png"}, nil)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("clearing a required image must fail, got %v", err)
	}
}

func TestBuildPayload_FileWinsOverURL(t *testing.T) {
	draft := partnerDraft(map[string]string{"name": "FAO", "logo": "https://img/ignored.png"},
		domain.ImageValue{File: &domain.Upload{Filename: "fao.png", ContentType: "image/png", Data: []byte("png")}})

	p, err := BuildPayload(PartnerDefinition().Schema, draft, nil, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !p.Multipart() || p.File.Field != "logo" || p.File.Upload.Filename != "fao.png" {
		t.Fatalf("expected logo file part, got %s", p)
	}
	if _, ok := p.Get("logo"); ok {
		t.Fatalf("URL must be omitted when a file is attached")
	}
}
