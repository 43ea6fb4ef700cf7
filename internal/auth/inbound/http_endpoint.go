package inbound

import (
	"github.com/shandysiswandi/medicore/internal/auth/usecase"
	"github.com/shandysiswandi/medicore/internal/pkg/router"
	"github.com/shandysiswandi/medicore/internal/shared/audit"
)

// HTTPEndpoint exposes HTTP handlers for authentication workflows.
type HTTPEndpoint struct {
	uc uc
}

func originOf(r *router.Request) audit.Origin {
	return audit.Origin{IP: r.ClientIP(), UserAgent: r.UserAgent()}
}

func toSessionResponse(s *usecase.Session) SessionResponse {
	return SessionResponse{
		User:         toUserResponse(s.User),
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
	}
}

// Register creates an account and signs it in.
// @Summary Register user
// @Description Creates a patient or doctor account and returns access/refresh tokens.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Register payload"
// @Success 201 {object} router.successResponse{data=RegisterResponse} "Registered"
// @Failure 400 {object} router.errorResponse "Validation error"
// @Failure 409 {object} router.errorResponse "Email already registered"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /auth/register [post]
func (h *HTTPEndpoint) Register(r *router.Request) (any, error) {
	var req RegisterRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Register(r.Context(), usecase.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      req.Role,
		Origin:    originOf(r),
	})
	if err != nil {
		return nil, err
	}

	return RegisterResponse{SessionResponse: toSessionResponse(resp)}, nil
}

// Login authenticates a user and returns tokens or a 2FA challenge.
// @Summary Authenticate user
// @Description Validates credentials. With 2FA enabled only a temporary token is returned.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login payload"
// @Success 200 {object} router.successResponse{data=LoginResponse} "Authentication result"
// @Failure 400 {object} router.errorResponse "Validation error"
// @Failure 401 {object} router.errorResponse "Invalid email or password"
// @Failure 403 {object} router.errorResponse "Account is banned"
// @Router /auth/login [post]
func (h *HTTPEndpoint) Login(r *router.Request) (any, error) {
	var req LoginRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Login(r.Context(), usecase.LoginInput{
		Email:    req.Email,
		Password: req.Password,
		Origin:   originOf(r),
	})
	if err != nil {
		return nil, err
	}

	if resp.Requires2FA {
		return LoginResponse{Requires2FA: true, TempToken: resp.TempToken}, nil
	}

	user := toUserResponse(resp.Session.User)
	return LoginResponse{
		User:         &user,
		AccessToken:  resp.Session.AccessToken,
		RefreshToken: resp.Session.RefreshToken,
	}, nil
}

// VerifyLogin2FA completes a login that is waiting for a TOTP code.
// @Summary Complete 2FA login
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body VerifyLogin2FARequest true "Code and temporary token"
// @Success 200 {object} router.successResponse{data=SessionResponse} "Authenticated"
// @Failure 400 {object} router.errorResponse "Invalid verification code"
// @Failure 401 {object} router.errorResponse "Token expired or invalid"
// @Router /auth/2fa/verify-login [post]
func (h *HTTPEndpoint) VerifyLogin2FA(r *router.Request) (any, error) {
	var req VerifyLogin2FARequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.VerifyLogin2FA(r.Context(), usecase.VerifyLogin2FAInput{
		Code:      req.Token,
		TempToken: req.TempToken,
		Origin:    originOf(r),
	})
	if err != nil {
		return nil, err
	}

	return toSessionResponse(resp), nil
}

func (h *HTTPEndpoint) Setup2FA(r *router.Request) (any, error) {
	resp, err := h.uc.Setup2FA(r.Context())
	if err != nil {
		return nil, err
	}

	return Setup2FAResponse{
		Secret:     resp.Secret,
		QRCode:     resp.QRCode,
		SetupToken: resp.SetupToken,
	}, nil
}

func (h *HTTPEndpoint) Verify2FA(r *router.Request) (any, error) {
	var req Verify2FARequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.Verify2FA(r.Context(), usecase.Verify2FAInput{
		Code:       req.Token,
		SetupToken: req.SetupToken,
		Origin:     originOf(r),
	}); err != nil {
		return nil, err
	}

	return TwoFactorStatusResponse{Enabled: true}, nil
}

func (h *HTTPEndpoint) Disable2FA(r *router.Request) (any, error) {
	var req Disable2FARequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.Disable2FA(r.Context(), usecase.Disable2FAInput{
		Password: req.Password,
		Code:     req.Token,
		Origin:   originOf(r),
	}); err != nil {
		return nil, err
	}

	return TwoFactorStatusResponse{Enabled: false}, nil
}

// RefreshToken exchanges a refresh token for a new pair.
// @Summary Refresh tokens
// @Description Rotates the refresh token. The presented token cannot be used again.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body RefreshTokenRequest true "Refresh token payload"
// @Success 200 {object} router.successResponse{data=RefreshTokenResponse} "New token pair"
// @Failure 401 {object} router.errorResponse "Refresh token expired, invalid or revoked"
// @Router /auth/refresh-token [post]
func (h *HTTPEndpoint) RefreshToken(r *router.Request) (any, error) {
	var req RefreshTokenRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.RefreshToken(r.Context(), usecase.RefreshTokenInput{
		RefreshToken: req.RefreshToken,
		Origin:       originOf(r),
	})
	if err != nil {
		return nil, err
	}

	return RefreshTokenResponse{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken}, nil
}

func (h *HTTPEndpoint) Logout(r *router.Request) (any, error) {
	var req LogoutRequest
	if err := r.DecodeOptionalBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.Logout(r.Context(), usecase.LogoutInput{
		RefreshToken: req.RefreshToken,
		Origin:       originOf(r),
	}); err != nil {
		return nil, err
	}

	return LogoutResponse{}, nil
}

// ForgotPassword requests a reset link.
// @Summary Forgot password
// @Description Always answers the same way whether or not the account exists.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body ForgotPasswordRequest true "Email payload"
// @Success 200 {object} router.successResponse{data=ForgotPasswordResponse}
// @Router /auth/forgot-password [post]
func (h *HTTPEndpoint) ForgotPassword(r *router.Request) (any, error) {
	var req ForgotPasswordRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.ForgotPassword(r.Context(), usecase.ForgotPasswordInput{
		Email:  req.Email,
		Origin: originOf(r),
	}); err != nil {
		return nil, err
	}

	return ForgotPasswordResponse{}, nil
}

func (h *HTTPEndpoint) VerifyToken(r *router.Request) (any, error) {
	var req VerifyTokenRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.VerifyResetToken(r.Context(), usecase.VerifyResetTokenInput{Token: req.Token})
	if err != nil {
		return nil, err
	}

	return VerifyTokenResponse{Valid: resp.Valid, Email: resp.Email}, nil
}

func (h *HTTPEndpoint) ResetPassword(r *router.Request) (any, error) {
	var req ResetPasswordRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.ResetPassword(r.Context(), usecase.ResetPasswordInput{
		Token:    req.Token,
		Password: req.Password,
		Origin:   originOf(r),
	}); err != nil {
		return nil, err
	}

	return ResetPasswordResponse{}, nil
}

func (h *HTTPEndpoint) Me(r *router.Request) (any, error) {
	resp, err := h.uc.Me(r.Context())
	if err != nil {
		return nil, err
	}

	return MeResponse{User: toUserResponse(*resp)}, nil
}
