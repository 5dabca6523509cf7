package domain

// Category is a ticket classification from the categories list.
type Category struct {
	ID    int
	Title string
}

// CategoryOption is one entry of the category picker. A zero Key means
// "all categories".
type CategoryOption struct {
	Key      int
	Text     string
	Disabled bool
}
