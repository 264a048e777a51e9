package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"myfi.backend/internal/domain/entities"
	domainerrors "myfi.backend/internal/domain/errors"
	"myfi.backend/internal/interfaces/http/middleware"
	"myfi.backend/internal/interfaces/http/response"
	"myfi.backend/pkg/utils"
)

// IdentityService is the OTP/PIN identity flow the handler drives
type IdentityService interface {
	Signup(ctx context.Context, contact entities.ContactMethod) (*entities.SignupResult, error)
	VerifyOtp(ctx context.Context, sub entities.OtpSubmission) (*entities.VerifyOtpResult, error)
	SetPin(ctx context.Context, userID uuid.UUID, pin string) (*entities.SetPinResult, error)
	VerifyPin(ctx context.Context, userID uuid.UUID, pin string) (*entities.VerifyPinResult, error)
	GetIdentity(ctx context.Context, userID uuid.UUID) (*entities.IdentityView, error)
	Logout(ctx context.Context, sessionID string) error
}

// IdentityHandler handles the signup, OTP and PIN endpoints
type IdentityHandler struct {
	identity IdentityService
}

// NewIdentityHandler creates a new identity handler
func NewIdentityHandler(identity IdentityService) *IdentityHandler {
	return &IdentityHandler{identity: identity}
}

// Signup issues an OTP to an email or mobile number
// POST /api/v1/user/signup
func (h *IdentityHandler) Signup(c *gin.Context) {
	var input entities.SignupInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.InvalidRequest(err.Error()))
		return
	}

	contact, err := entities.NewContactMethod(input.Email, input.Mobile)
	if err != nil {
		response.Error(c, err)
		return
	}

	res, err := h.identity.Signup(c.Request.Context(), contact)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

// VerifyOtp checks the OTP sent to the submitted contact
// POST /api/v1/user/verify
func (h *IdentityHandler) VerifyOtp(c *gin.Context) {
	var input entities.VerifyOtpInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.InvalidRequest(err.Error()))
		return
	}

	userID, ok := parseUserID(c, input.UserID)
	if !ok {
		return
	}
	contact, err := entities.NewContactMethod(input.Email, input.Mobile)
	if err != nil {
		response.Error(c, err)
		return
	}

	otp := input.MobileOTP
	if contact.Channel() == entities.ChannelEmail {
		otp = input.EmailOTP
	}

	res, err := h.identity.VerifyOtp(c.Request.Context(), entities.OtpSubmission{
		UserID:  userID,
		Contact: contact,
		OTP:     otp,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

// SetPin stores a PIN for a confirmed user
// POST /api/v1/user/pin
func (h *IdentityHandler) SetPin(c *gin.Context) {
	var input entities.PinInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.InvalidRequest(err.Error()))
		return
	}

	userID, ok := parseUserID(c, input.UserID)
	if !ok {
		return
	}

	res, err := h.identity.SetPin(c.Request.Context(), userID, input.Pin)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

// VerifyPin checks the PIN and opens a session
// POST /api/v1/user/pin/verify
func (h *IdentityHandler) VerifyPin(c *gin.Context) {
	var input entities.PinInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.InvalidRequest(err.Error()))
		return
	}

	userID, ok := parseUserID(c, input.UserID)
	if !ok {
		return
	}

	res, err := h.identity.VerifyPin(c.Request.Context(), userID, input.Pin)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

// Me returns the identity behind the current session
// GET /api/v1/user/me
func (h *IdentityHandler) Me(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("Unauthorized"))
		return
	}

	view, err := h.identity.GetIdentity(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// Logout revokes the current session
// POST /api/v1/user/logout
func (h *IdentityHandler) Logout(c *gin.Context) {
	sessionID, ok := middleware.GetSessionID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("Unauthorized"))
		return
	}

	if err := h.identity.Logout(c.Request.Context(), sessionID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func parseUserID(c *gin.Context, raw string) (uuid.UUID, bool) {
	id, ok := utils.ParseID(raw)
	if !ok {
		response.Error(c, domainerrors.InvalidRequest("Invalid user_id"))
		return uuid.Nil, false
	}
	return id, true
}
