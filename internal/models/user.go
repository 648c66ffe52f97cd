package models

// RoleOperator is the role of every account created through sign-up.
const RoleOperator = "operator"

// User is an account allowed to call the control API.
type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	Role         string `json:"role"`
	PasswordHash string `json:"-"`
}
