package inbound

import (
	"context"

	"github.com/shandysiswandi/medicore/internal/auth/usecase"
	"github.com/shandysiswandi/medicore/internal/pkg/router"
)

type uc interface {
	Register(ctx context.Context, in usecase.RegisterInput) (*usecase.Session, error)
	Login(ctx context.Context, in usecase.LoginInput) (*usecase.LoginOutput, error)
	VerifyLogin2FA(ctx context.Context, in usecase.VerifyLogin2FAInput) (*usecase.Session, error)

	Setup2FA(ctx context.Context) (*usecase.Setup2FAOutput, error)
	Verify2FA(ctx context.Context, in usecase.Verify2FAInput) error
	Disable2FA(ctx context.Context, in usecase.Disable2FAInput) error

	RefreshToken(ctx context.Context, in usecase.RefreshTokenInput) (*usecase.RefreshTokenOutput, error)
	Logout(ctx context.Context, in usecase.LogoutInput) error

	ForgotPassword(ctx context.Context, in usecase.ForgotPasswordInput) error
	VerifyResetToken(ctx context.Context, in usecase.VerifyResetTokenInput) (*usecase.VerifyResetTokenOutput, error)
	ResetPassword(ctx context.Context, in usecase.ResetPasswordInput) error

	Me(ctx context.Context) (*usecase.User, error)
}

// RegisterHTTPEndpoint mounts the /auth routes. mws wrap every route, which
// is where the per-IP rate limit goes.
func RegisterHTTPEndpoint(r *router.Router, uc uc, mws ...router.Middleware) {
	end := &HTTPEndpoint{uc: uc}

	r.POST("/auth/register", end.Register, mws...)
	r.POST("/auth/login", end.Login, mws...)
	r.POST("/auth/refresh-token", end.RefreshToken, mws...)
	r.POST("/auth/logout", end.Logout, mws...) // need authenticated
	r.GET("/auth/me", end.Me, mws...)          // need authenticated

	// Two factor
	r.POST("/auth/2fa/setup", end.Setup2FA, mws...)   // need authenticated
	r.POST("/auth/2fa/verify", end.Verify2FA, mws...) // need authenticated
	r.POST("/auth/2fa/disable", end.Disable2FA, mws...) // need authenticated
	r.POST("/auth/2fa/verify-login", end.VerifyLogin2FA, mws...)

	// Password
	r.POST("/auth/forgot-password", end.ForgotPassword, mws...)
	r.POST("/auth/verify-token", end.VerifyToken, mws...)
	r.POST("/auth/reset-password", end.ResetPassword, mws...)
}
