package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/agridynamic/admin-console/internal/core/domain"
	"github.com/agridynamic/admin-console/internal/core/ports"
	"github.com/agridynamic/admin-console/internal/core/service"
)

// edits are the field changes given on the command line.
type edits struct {
	set   []string // name=value
	files []string // field=path
	clear []string // field
}

func (e *edits) bind(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&e.set, "set", nil, "set a field, name=value (repeatable)")
	cmd.Flags().StringArrayVar(&e.files, "file", nil, "upload an image, field=path (repeatable)")
	cmd.Flags().StringArrayVar(&e.clear, "clear", nil, "remove a stored image (repeatable)")
}

func (e edits) apply(form *service.FormController) error {
	for _, kv := range e.set {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("--set %q: expected name=value", kv)
		}
		if err := form.SetField(name, value); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	for _, kv := range e.files {
		name, path, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("--file %q: expected field=path", kv)
		}
		upload, err := readUpload(path)
		if err != nil {
			return err
		}
		if err := form.SetImageFile(name, upload); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	for _, name := range e.clear {
		if err := form.ClearImage(name); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

func readUpload(path string) (domain.Upload, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return domain.Upload{}, fmt.Errorf("read %s: %w", path, err)
	}
	return domain.Upload{
		Filename:    filepath.Base(path),
		ContentType: http.DetectContentType(data),
		Data:        data,
	}, nil
}

// resourceOps is one resource collection as the commands see it.
type resourceOps interface {
	list(ctx context.Context, w io.Writer, status, term string) error
	create(ctx context.Context, w io.Writer, e edits) error
	update(ctx context.Context, w io.Writer, id string, e edits) error
	remove(ctx context.Context, id string, confirm ports.Confirmer) error
}

type resourceCLI[T domain.Searchable] struct {
	ctrl     *service.ResourceController[T]
	statuses []string
	header   []string
	row      func(T) []string
}

func (r resourceCLI[T]) list(ctx context.Context, w io.Writer, status, term string) error {
	items, err := r.ctrl.FetchAll(ctx)
	if err != nil {
		return describe(err)
	}
	view := service.NewFilterView[T](r.statuses)
	view.SetSource(items)
	if err := view.SetStatus(status); err != nil {
		return err
	}
	view.SetTerm(term)

	if view.NoResults() {
		fmt.Fprintln(w, "No results found. Try a different search or status.")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(append([]string{"ID"}, r.header...), "\t"))
	for _, it := range view.Displayed() {
		fmt.Fprintln(tw, strings.Join(append([]string{it.ItemID()}, r.row(it)...), "\t"))
	}
	return tw.Flush()
}

func (r resourceCLI[T]) create(ctx context.Context, w io.Writer, e edits) error {
	form := service.NewFormController(r.ctrl.Definition().Schema, nil)
	if err := e.apply(form); err != nil {
		return err
	}
	var created T
	err := form.Submit(func(d domain.FormDraft) (err error) {
		created, err = r.ctrl.Create(ctx, d)
		return err
	})
	if err != nil {
		return describe(err)
	}
	return printJSON(w, created)
}

func (r resourceCLI[T]) update(ctx context.Context, w io.Writer, id string, e edits) error {
	if _, err := r.ctrl.FetchAll(ctx); err != nil {
		return describe(err)
	}
	item, ok := r.ctrl.Find(id)
	if !ok {
		return fmt.Errorf("%s %s: %w", r.ctrl.Definition().Label, id, domain.ErrNotFound)
	}
	src, _ := any(item).(domain.FormSource)
	form := service.NewFormController(r.ctrl.Definition().Schema, src)
	if err := e.apply(form); err != nil {
		return err
	}
	var updated T
	err := form.Submit(func(d domain.FormDraft) (err error) {
		updated, err = r.ctrl.Update(ctx, id, d)
		return err
	})
	if err != nil {
		return describe(err)
	}
	return printJSON(w, updated)
}

func (r resourceCLI[T]) remove(ctx context.Context, id string, confirm ports.Confirmer) error {
	if err := r.ctrl.Delete(ctx, id, confirm); err != nil {
		return describe(err)
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (c *cli) resources() map[string]resourceOps {
	a := c.app
	return map[string]resourceOps{
		service.ResourceArticles: resourceCLI[domain.Article]{
			ctrl:     a.Articles,
			statuses: domain.ArticleStatuses,
			header:   []string{"TITLE", "STATUS", "PUBLISHED"},
			row: func(x domain.Article) []string {
				return []string{x.Title, string(x.Status), fmt.Sprint(x.Published)}
			},
		},
		service.ResourceEnquiries: resourceCLI[domain.Enquiry]{
			ctrl:     a.Enquiries,
			statuses: domain.EnquiryStatuses,
			header:   []string{"NAME", "EMAIL", "STATUS"},
			row: func(x domain.Enquiry) []string {
				return []string{x.Name, x.Email, string(x.Status)}
			},
		},
		service.ResourcePartners: resourceCLI[domain.Partner]{
			ctrl:   a.Partners,
			header: []string{"NAME", "LINK"},
			row: func(x domain.Partner) []string {
				return []string{x.Name, x.Link}
			},
		},
		service.ResourceVolunteers: resourceCLI[domain.Volunteer]{
			ctrl:   a.Volunteers,
			header: []string{"NAME", "EMAIL"},
			row: func(x domain.Volunteer) []string {
				return []string{x.FirstName + " " + x.LastName, x.Email}
			},
		},
	}
}

func (c *cli) resource(name string) (resourceOps, error) {
	ops, ok := c.resources()[name]
	if !ok {
		return nil, fmt.Errorf("unknown resource %q (articles, enquiries, partners, volunteers)", name)
	}
	return ops, nil
}

func (c *cli) listCmd() *cobra.Command {
	var status, term string
	cmd := &cobra.Command{
		Use:   "list <resource>",
		Short: "List articles, enquiries, partners or volunteers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireSession(cmd.Context()); err != nil {
				return err
			}
			ops, err := c.resource(args[0])
			if err != nil {
				return err
			}
			return ops.list(cmd.Context(), cmd.OutOrStdout(), status, term)
		},
	}
	cmd.Flags().StringVar(&status, "status", service.StatusAll, "only show items with this status")
	cmd.Flags().StringVarP(&term, "query", "q", "", "case-insensitive search term")
	return cmd
}

func (c *cli) createCmd() *cobra.Command {
	var e edits
	cmd := &cobra.Command{
		Use:     "create <resource>",
		Short:   "Create an item",
		Example: "  adminctl create partners --set name=FAO --file logo=./fao.png --set link=https://www.fao.org",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireSession(cmd.Context()); err != nil {
				return err
			}
			ops, err := c.resource(args[0])
			if err != nil {
				return err
			}
			return ops.create(cmd.Context(), cmd.OutOrStdout(), e)
		},
	}
	e.bind(cmd)
	return cmd
}

func (c *cli) updateCmd() *cobra.Command {
	var e edits
	cmd := &cobra.Command{
		Use:   "update <resource> <id>",
		Short: "Update an item; fields not given keep their value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireSession(cmd.Context()); err != nil {
				return err
			}
			ops, err := c.resource(args[0])
			if err != nil {
				return err
			}
			return ops.update(cmd.Context(), cmd.OutOrStdout(), args[1], e)
		},
	}
	e.bind(cmd)
	return cmd
}

func (c *cli) deleteCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <resource> <id>",
		Short: "Delete an item after confirmation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireSession(cmd.Context()); err != nil {
				return err
			}
			ops, err := c.resource(args[0])
			if err != nil {
				return err
			}
			confirm := ports.ConfirmFunc(func(_ context.Context, prompt string) bool {
				if yes {
					return true
				}
				answer, err := readLine(prompt + " [y/N] ")
				return err == nil && strings.EqualFold(answer, "y")
			})
			if err := ops.remove(cmd.Context(), args[1], confirm); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Deleted", args[1])
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func (c *cli) projectsCmd() *cobra.Command {
	var status, term string
	cmd := &cobra.Command{
		Use:   "projects [id]",
		Short: "Show the public project catalog, or one project page",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 1 {
				page, err := c.app.Catalog.Article(cmd.Context(), args[0])
				if err != nil {
					return describe(err)
				}
				return printJSON(out, page)
			}

			listing, err := c.app.Catalog.Projects(cmd.Context(), status, term)
			if err != nil && !listing.Tabs[service.StatusAll] {
				return describe(err)
			}
			if err != nil {
				fmt.Fprintln(os.Stderr, "warning: backend unreachable, showing the last known list")
			}
			if listing.NoResults || len(listing.Projects) == 0 {
				fmt.Fprintln(out, "No projects found.")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTITLE\tSTATUS")
			for _, p := range listing.Projects {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", p.ID, p.Title, p.Status)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "all (default), upcoming, in-progress, completed or archived")
	cmd.Flags().StringVarP(&term, "query", "q", "", "case-insensitive search term")
	return cmd
}
