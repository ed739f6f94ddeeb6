package models

import "github.com/golang-jwt/jwt/v5"

// Role values carried in JWT claims.
const (
	RoleTechnician = "technician"
	RoleDispatcher = "dispatcher"
)

type JwtCustomClaims struct {
	UserID string `json:"userID"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// ErrorResponse is the uniform error body returned by handlers.
type ErrorResponse struct {
	Message string `json:"message"`
}
