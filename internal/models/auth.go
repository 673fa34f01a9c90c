// Clickboard - Feature Click Analytics Dashboard Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clickboard

package models

// LoginRequest is the body of POST /users/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is returned by a successful login.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// RegisterRequest is what the registration form collects.
// ConfirmPassword never leaves the client; see Payload.
type RegisterRequest struct {
	Username        string `json:"username" validate:"required,min=3"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8,password_complexity"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
	Age             int    `json:"age" validate:"required,gte=18,lte=100"`
	Gender          Gender `json:"gender" validate:"required,gender_option"`
}

// RegisterPayload is the body of POST /users/.
type RegisterPayload struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Age      int    `json:"age"`
	Gender   Gender `json:"gender"`
}

// Payload strips the confirmation field.
func (r RegisterRequest) Payload() RegisterPayload {
	return RegisterPayload{
		Username: r.Username,
		Email:    r.Email,
		Password: r.Password,
		Age:      r.Age,
		Gender:   r.Gender,
	}
}

// UserOut is the registration response.
type UserOut struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Age      int    `json:"age"`
	Gender   Gender `json:"gender"`
	CreateAt string `json:"create_at,omitempty"`
}
