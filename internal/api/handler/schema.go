package handler

import "github.com/sirpyerre/postbox/internal/core/domain"

// --- Auth ---

type signupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=64"`
}

// loginRequest accepts JSON {email, password} or an OAuth2 password form
// where the email travels as "username".
type loginRequest struct {
	Email    string `json:"email" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

type userResponse struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

type tokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        userResponse `json:"user"`
}

func newTokenResponse(token string, user *domain.User) tokenResponse {
	return tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        userResponse{ID: user.ID, Email: user.Email},
	}
}

// --- Posts ---

type createPostRequest struct {
	Text string `json:"text" validate:"required,min=1,max=10000"`
}

type postResponse struct {
	ID      int64  `json:"id"`
	Text    string `json:"text"`
	OwnerID int64  `json:"owner_id"`
}

func toPostResponse(p domain.Post) postResponse {
	return postResponse{ID: p.ID, Text: p.Text, OwnerID: p.OwnerID}
}

func toPostResponses(posts []domain.Post) []postResponse {
	out := make([]postResponse, 0, len(posts))
	for _, p := range posts {
		out = append(out, toPostResponse(p))
	}
	return out
}

// ErrorResponse is the canonical error envelope for all API errors.
type ErrorResponse struct {
	Error string `json:"error"`
}
