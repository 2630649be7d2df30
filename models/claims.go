package models

import (
	jwt "github.com/dgrijalva/jwt-go"
)

// AuthClaims is the JWT claim set issued at register/login.
type AuthClaims struct {
	UserID string `json:"userId"`
	jwt.StandardClaims
}
