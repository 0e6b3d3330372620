package ports

// ContentRenderer turns an article's long-form markdown into safe HTML.
type ContentRenderer interface {
	Render(markdown string) (string, error)
}
