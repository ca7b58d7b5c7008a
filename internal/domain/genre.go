package domain

// Genre is a book category such as "Science Fiction".
type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Language is a natural language a book was written in or a copy is printed in.
type Language struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
