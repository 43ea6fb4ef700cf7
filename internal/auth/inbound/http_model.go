package inbound

import (
	"net/http"
	"time"

	"github.com/shandysiswandi/medicore/internal/auth/usecase"
)

type UserResponse struct {
	ID               int64     `json:"id,string"`
	Email            string    `json:"email"`
	FirstName        string    `json:"firstName"`
	LastName         string    `json:"lastName"`
	Role             string    `json:"role"`
	TwoFactorEnabled bool      `json:"twoFactorEnabled"`
	PublicKey        string    `json:"publicKey,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

func toUserResponse(u usecase.User) UserResponse {
	return UserResponse{
		ID:               u.ID,
		Email:            u.Email,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		Role:             u.Role,
		TwoFactorEnabled: u.TwoFactorEnabled,
		PublicKey:        u.PublicKey,
		CreatedAt:        u.CreatedAt,
	}
}

type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
}

type SessionResponse struct {
	User         UserResponse `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

type RegisterResponse struct {
	SessionResponse
}

func (RegisterResponse) Message() string {
	return "User registered successfully"
}

func (RegisterResponse) StatusCode() int {
	return http.StatusCreated
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse holds either the session or the 2FA challenge. Tokens are
// omitted entirely while 2FA is pending.
type LoginResponse struct {
	User         *UserResponse `json:"user,omitempty"`
	AccessToken  string        `json:"accessToken,omitempty"`
	RefreshToken string        `json:"refreshToken,omitempty"`
	Requires2FA  bool          `json:"requires2FA,omitempty"`
	TempToken    string        `json:"tempToken,omitempty"`
}

func (r LoginResponse) Message() string {
	if r.Requires2FA {
		return "Two-factor authentication required"
	}
	return "Login successful"
}

type VerifyLogin2FARequest struct {
	Token     string `json:"token"`
	TempToken string `json:"tempToken"`
}

type Setup2FAResponse struct {
	Secret     string `json:"secret"`
	QRCode     string `json:"qrCode"`
	SetupToken string `json:"setupToken"`
}

type Verify2FARequest struct {
	Token      string `json:"token"`
	SetupToken string `json:"setupToken"`
}

type Disable2FARequest struct {
	Password string `json:"password"`
	Token    string `json:"token"`
}

type TwoFactorStatusResponse struct {
	Enabled bool `json:"enabled"`
}

func (r TwoFactorStatusResponse) Message() string {
	if r.Enabled {
		return "Two-factor authentication enabled"
	}
	return "Two-factor authentication disabled"
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type RefreshTokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type LogoutResponse struct{}

func (LogoutResponse) Message() string {
	return "Logged out successfully"
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ForgotPasswordResponse struct{}

func (ForgotPasswordResponse) Message() string {
	return "If an account with that email exists, a password reset link has been sent."
}

type VerifyTokenRequest struct {
	Token string `json:"token"`
}

type VerifyTokenResponse struct {
	Valid bool   `json:"valid"`
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type ResetPasswordResponse struct{}

func (ResetPasswordResponse) Message() string {
	return "Password has been reset successfully"
}

type MeResponse struct {
	User UserResponse `json:"user"`
}
