package models

// ContentFile is a markdown file as exchanged with the editor.
type ContentFile struct {
	Path        string                 `json:"path"`
	Content     string                 `json:"content"`
	FrontMatter map[string]interface{} `json:"frontmatter,omitempty"`
}
