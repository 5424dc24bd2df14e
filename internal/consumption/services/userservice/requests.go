package userservice

import "github.com/henjigg/consumption/internal/consumption/domain/models"

type ListUsersRequest struct {
	Search    string
	PageIndex int
	PageSize  int
}

type CreateUserRequest struct {
	Account  string `json:"account"`
	Password string `json:"password"`
	UserName string `json:"username"`
	Tel      string `json:"tel"`
	Email    string `json:"email"`
	Address  string `json:"address"`
}

type UpdateUserRequest struct {
	UserName  string `json:"username"`
	Password  string `json:"password"`
	Tel       string `json:"tel"`
	Email     string `json:"email"`
	Address   string `json:"address"`
	IsLocked  bool   `json:"is_locked"`  //nolint:tagliatelle
	FlagAdmin bool   `json:"flag_admin"` //nolint:tagliatelle
}

type UserPage struct {
	Items      []models.User `json:"items"`
	TotalCount int64         `json:"totalCount"`
}
