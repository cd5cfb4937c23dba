package dto

// UserResponse lists an account with the identifiers of every row it owns.
type UserResponse struct {
	ID          int64   `json:"id"`
	Username    string  `json:"username"`
	Orders      []int64 `json:"orders"`
	Retailers   []int64 `json:"retailers"`
	Suppliers   []int64 `json:"suppliers"`
	Concessions []int64 `json:"concessions"`
	Memos       []int64 `json:"memos"`
	Manuals     []int64 `json:"manuals"`
}
