package category

// CategoryResponse is a catalog entry as offered to the submission form.
type CategoryResponse struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CategoriesResponse is the machine-readable catalog printed by `categories --json`.
type CategoriesResponse struct {
	Categories []CategoryResponse `json:"categories"`
	Count      int                `json:"count"`
}

func NewCategoriesResponse(categories []CategoryResponse) CategoriesResponse {
	return CategoriesResponse{Categories: categories, Count: len(categories)}
}
