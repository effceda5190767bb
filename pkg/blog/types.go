package blog

// Post is a published document, stored in full under its record key.
type Post struct {
	Slug        string   `json:"slug"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Author      string   `json:"author"`
	Date        string   `json:"date"`
	CoverImage  *string  `json:"cover_image,omitempty"`
	Tags        []string `json:"tags"`
	Content     string   `json:"content"`
}

// PostMeta is a Post without its content, as kept in the list index.
type PostMeta struct {
	Slug        string   `json:"slug"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Author      string   `json:"author"`
	Date        string   `json:"date"`
	CoverImage  *string  `json:"cover_image,omitempty"`
	Tags        []string `json:"tags"`
}

// Meta returns the list-index summary of the post.
func (p *Post) Meta() PostMeta {
	return PostMeta{
		Slug:        p.Slug,
		Title:       p.Title,
		Description: p.Description,
		Author:      p.Author,
		Date:        p.Date,
		CoverImage:  p.CoverImage,
		Tags:        nonNilSlice(p.Tags),
	}
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
