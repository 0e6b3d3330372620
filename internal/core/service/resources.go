package service

import (
	"strconv"

	"github.com/agridynamic/admin-console/internal/core/domain"
	"github.com/agridynamic/admin-console/internal/core/ports"
)

// Resource names double as backend path segments.
const (
	ResourceArticles   = "articles"
	ResourceEnquiries  = "enquiries"
	ResourcePartners   = "partners"
	ResourceVolunteers = "volunteers"
)

// legacyIncomplete is the status older article forms submitted for upcoming.
const legacyIncomplete = "incomplete"

var articleStatusAliases = map[string]string{legacyIncomplete: string(domain.ArticleUpcoming)}

func statusOptions(values []string, labels ...string) []domain.Option {
	out := make([]domain.Option, len(values))
	for i, v := range values {
		out[i] = domain.Option{Value: v, Label: labels[i]}
	}
	return out
}

func textarea(name, label string) domain.Field {
	return domain.Field{Name: name, Label: label, Kind: domain.Textarea{Rows: 4}}
}

// ArticleDefinition describes research projects. Articles are created
// unpublished and keep their published flag across edits.
func ArticleDefinition() Definition[domain.Article] {
	schema := domain.Schema{
		{Name: "title", Label: "Title", Kind: domain.TextInput{}, Required: true},
		{Name: "description", Label: "Brief Description", Kind: domain.Textarea{Rows: 3}, Required: true},
		{Name: "image", Label: "Image", Kind: domain.ImageUpload{}, Required: true},
		{Name: "contributors", Label: "Contributors (comma-separated)", Kind: domain.TextInput{}},
		{
			Name:     "status",
			Label:    "Status",
			Kind: domain.Select{
				Options: statusOptions(domain.ArticleStatuses, "Upcoming", "In-Progress", "Completed", "Archived"),
				Aliases: articleStatusAliases,
			},
			Default:  string(domain.ArticleUpcoming),
			Required: true,
		},
		textarea("background", "Background"),
		textarea("methodology", "Methodology"),
		textarea("results", "Main Results"),
		textarea("conclusions", "Conclusions"),
		textarea("recommendations", "Recommendations"),
		textarea("application", "Application at AgriDynamic"),
	}
	return Definition[domain.Article]{
		Name:      ResourceArticles,
		Label:     "project",
		Schema:    schema,
		CanCreate: true,
		OnCreate: func(p *ports.Payload) {
			if s, _ := p.Get("status"); s == legacyIncomplete {
				p.Set("status", string(domain.ArticleUpcoming))
			}
			p.Set("published", "false")
		},
		OnUpdate: func(p *ports.Payload, previous domain.Article) {
			p.Set("published", strconv.FormatBool(previous.Published))
		},
	}
}

// EnquiryDefinition describes contact-form enquiries. They arrive from the
// public site, so the console only triages, answers and deletes them.
func EnquiryDefinition() Definition[domain.Enquiry] {
	schema := domain.Schema{
		{Name: "name", Label: "Name", Kind: domain.TextInput{}, Required: true, ReadOnly: true},
		{Name: "email", Label: "Email", Kind: domain.TextInput{Type: domain.InputEmail}, Required: true, ReadOnly: true},
		{Name: "message", Label: "Message", Kind: domain.Textarea{Rows: 5}, Required: true, ReadOnly: true},
		{
			Name:     "status",
			Label:    "Status",
			Kind:     domain.Select{Options: statusOptions(domain.EnquiryStatuses, "New", "Read", "Responded", "Archived")},
			Default:  string(domain.EnquiryNew),
			Required: true,
		},
		{Name: "replyMessage", Label: "Reply to User (Optional)", Kind: domain.Textarea{Rows: 5}},
	}
	return Definition[domain.Enquiry]{
		Name:   ResourceEnquiries,
		Label:  "enquiry",
		Schema: schema,
	}
}

func PartnerDefinition() Definition[domain.Partner] {
	return Definition[domain.Partner]{
		Name:  ResourcePartners,
		Label: "partner",
		Schema: domain.Schema{
			{Name: "name", Label: "Partner Name", Kind: domain.TextInput{}, Required: true},
			{Name: "logo", Label: "Logo", Kind: domain.ImageUpload{}, Required: true},
			{Name: "link", Label: "Website URL", Kind: domain.TextInput{Type: domain.InputURL}},
			textarea("description", "Description"),
		},
		CanCreate: true,
	}
}

func VolunteerDefinition() Definition[domain.Volunteer] {
	return Definition[domain.Volunteer]{
		Name:  ResourceVolunteers,
		Label: "volunteer",
		Schema: domain.Schema{
			{Name: "firstName", Label: "First Name", Kind: domain.TextInput{}, Required: true},
			{Name: "lastName", Label: "Last Name", Kind: domain.TextInput{}, Required: true},
			{Name: "email", Label: "Email Address", Kind: domain.TextInput{Type: domain.InputEmail}, Required: true},
		},
		CanCreate: true,
	}
}
