package authservice

import "github.com/henjigg/consumption/internal/consumption/domain/models"

type LoginRequest struct {
	Account  string `json:"account"`
	Password string `json:"password"`
}

type LoginResult struct {
	User  models.User         `json:"user"`
	Menus []models.MenuAccess `json:"menus"`
}
