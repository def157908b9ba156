package model

// Sheet is a handle to one named table inside a tabular store
type Sheet struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
