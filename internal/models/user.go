package models

// User is a registered player. Users are immutable once created.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}
