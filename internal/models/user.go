package models

// User is the only entity of the service.
// Length and uniqueness of Username are enforced by the store.
type User struct {
	Username string `json:"username" gorm:"column:username"`
}
