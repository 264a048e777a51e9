package handlers

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"myfi.backend/internal/domain/entities"
	domainerrors "myfi.backend/internal/domain/errors"
	"myfi.backend/internal/interfaces/http/middleware"
)

type identityServiceStub struct {
	signupFn      func(ctx context.Context, contact entities.ContactMethod) (*entities.SignupResult, error)
	verifyOtpFn   func(ctx context.Context, sub entities.OtpSubmission) (*entities.VerifyOtpResult, error)
	setPinFn      func(ctx context.Context, userID uuid.UUID, pin string) (*entities.SetPinResult, error)
	verifyPinFn   func(ctx context.Context, userID uuid.UUID, pin string) (*entities.VerifyPinResult, error)
	getIdentityFn func(ctx context.Context, userID uuid.UUID) (*entities.IdentityView, error)
	logoutFn      func(ctx context.Context, sessionID string) error
}

func (s identityServiceStub) Signup(ctx context.Context, contact entities.ContactMethod) (*entities.SignupResult, error) {
	return s.signupFn(ctx, contact)
}
func (s identityServiceStub) VerifyOtp(ctx context.Context, sub entities.OtpSubmission) (*entities.VerifyOtpResult, error) {
	return s.verifyOtpFn(ctx, sub)
}
func (s identityServiceStub) SetPin(ctx context.Context, userID uuid.UUID, pin string) (*entities.SetPinResult, error) {
	return s.setPinFn(ctx, userID, pin)
}
func (s identityServiceStub) VerifyPin(ctx context.Context, userID uuid.UUID, pin string) (*entities.VerifyPinResult, error) {
	return s.verifyPinFn(ctx, userID, pin)
}
func (s identityServiceStub) GetIdentity(ctx context.Context, userID uuid.UUID) (*entities.IdentityView, error) {
	return s.getIdentityFn(ctx, userID)
}
func (s identityServiceStub) Logout(ctx context.Context, sessionID string) error {
	return s.logoutFn(ctx, sessionID)
}

func newIdentityRouter(svc IdentityService, userID uuid.UUID, sessionID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewIdentityHandler(svc)
	r := gin.New()
	r.POST("/signup", h.Signup)
	r.POST("/verify", h.VerifyOtp)
	r.POST("/pin", h.SetPin)
	r.POST("/pin/verify", h.VerifyPin)

	authed := r.Group("")
	if userID != uuid.Nil {
		authed.Use(func(c *gin.Context) {
			c.Set(middleware.UserIDKey, userID)
			c.Set(middleware.SessionIDKey, sessionID)
			c.Next()
		})
	}
	authed.GET("/me", h.Me)
	authed.POST("/logout", h.Logout)
	return r
}

func TestIdentityHandler_Signup(t *testing.T) {
	userID := uuid.New()
	var got entities.ContactMethod
	svc := identityServiceStub{
		signupFn: func(_ context.Context, contact entities.ContactMethod) (*entities.SignupResult, error) {
			got = contact
			return &entities.SignupResult{UserID: userID, Message: "SUCCESS."}, nil
		},
	}
	r := newIdentityRouter(svc, uuid.Nil, "")

	w := doJSON(r, http.MethodPost, "/signup", `{"email":" A@B.com "}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, entities.EmailContact("a@b.com"), got)
	assert.Contains(t, w.Body.String(), userID.String())
	assert.Contains(t, w.Body.String(), `"is_existing_user":false`)

	w = doJSON(r, http.MethodPost, "/signup", `{"mobile":"+919800000000"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, entities.MobileContact("+919800000000"), got)
}

func TestIdentityHandler_Signup_Rejections(t *testing.T) {
	svc := identityServiceStub{
		signupFn: func(context.Context, entities.ContactMethod) (*entities.SignupResult, error) {
			return nil, fmt.Errorf("store: %w", domainerrors.ErrInvalidRequest)
		},
	}
	r := newIdentityRouter(svc, uuid.Nil, "")

	for _, body := range []string{`{`, `{}`, `{"email":"a@b.com","mobile":"98"}`, `{"email":"no-at"}`, `{"email":"a@b.com"}`} {
		w := doJSON(r, http.MethodPost, "/signup", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.Contains(t, w.Body.String(), domainerrors.CodeInvalidRequest, body)
	}
}

func TestIdentityHandler_VerifyOtp_PicksChannelCode(t *testing.T) {
	userID := uuid.New()
	var got entities.OtpSubmission
	svc := identityServiceStub{
		verifyOtpFn: func(_ context.Context, sub entities.OtpSubmission) (*entities.VerifyOtpResult, error) {
			got = sub
			return &entities.VerifyOtpResult{UserID: sub.UserID, Message: "SUCCESS."}, nil
		},
	}
	r := newIdentityRouter(svc, uuid.Nil, "")

	w := doJSON(r, http.MethodPost, "/verify", fmt.Sprintf(`{"user_id":%q,"email":"a@b.com","email_otp":"111111","mobile_otp":"222222"}`, userID))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, entities.OtpSubmission{UserID: userID, Contact: entities.EmailContact("a@b.com"), OTP: "111111"}, got)

	w = doJSON(r, http.MethodPost, "/verify", fmt.Sprintf(`{"user_id":%q,"mobile":"98","mobile_otp":"222222"}`, userID))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "222222", got.OTP)
	assert.Equal(t, entities.MobileContact("98"), got.Contact)
}

func TestIdentityHandler_VerifyOtp_Errors(t *testing.T) {
	svc := identityServiceStub{
		verifyOtpFn: func(context.Context, entities.OtpSubmission) (*entities.VerifyOtpResult, error) {
			return nil, fmt.Errorf("lookup: %w", domainerrors.ErrNotFound)
		},
	}
	r := newIdentityRouter(svc, uuid.Nil, "")

	w := doJSON(r, http.MethodPost, "/verify", `{"email":"a@b.com"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPost, "/verify", `{"user_id":"nope","email":"a@b.com"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid user_id")

	w = doJSON(r, http.MethodPost, "/verify", fmt.Sprintf(`{"user_id":%q}`, uuid.New()))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPost, "/verify", fmt.Sprintf(`{"user_id":%q,"email":"a@b.com","email_otp":"1"}`, uuid.New()))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestIdentityHandler_Pins(t *testing.T) {
	userID := uuid.New()
	expires := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	svc := identityServiceStub{
		setPinFn: func(_ context.Context, id uuid.UUID, pin string) (*entities.SetPinResult, error) {
			if pin == "12" {
				return nil, fmt.Errorf("pin: %w", domainerrors.ErrInvalidRequest)
			}
			return &entities.SetPinResult{UserID: id, Message: "SUCCESS."}, nil
		},
		verifyPinFn: func(_ context.Context, id uuid.UUID, pin string) (*entities.VerifyPinResult, error) {
			if pin != "1234" {
				return nil, fmt.Errorf("pin mismatch: %w: %w", domainerrors.ErrInvalidRequest, domainerrors.ErrUnauthorized)
			}
			return &entities.VerifyPinResult{UserID: id, IsVerified: true, SessionToken: "tok", ExpiresAt: expires}, nil
		},
	}
	r := newIdentityRouter(svc, uuid.Nil, "")

	w := doJSON(r, http.MethodPost, "/pin", fmt.Sprintf(`{"user_id":%q,"pin":"1234"}`, userID))
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodPost, "/pin", fmt.Sprintf(`{"user_id":%q,"pin":"12"}`, userID))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPost, "/pin", `{"user_id":"x","pin":"1234"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPost, "/pin/verify", fmt.Sprintf(`{"user_id":%q,"pin":"1234"}`, userID))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"session_token":"tok"`)
	assert.Contains(t, w.Body.String(), `"is_verified":true`)

	w = doJSON(r, http.MethodPost, "/pin/verify", fmt.Sprintf(`{"user_id":%q,"pin":"9999"}`, userID))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPost, "/pin/verify", `{"pin":"1234"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIdentityHandler_MeAndLogout(t *testing.T) {
	userID := uuid.New()
	var loggedOut string
	svc := identityServiceStub{
		getIdentityFn: func(_ context.Context, id uuid.UUID) (*entities.IdentityView, error) {
			return &entities.IdentityView{UserID: id, Email: "a@b.com", HasPin: true}, nil
		},
		logoutFn: func(_ context.Context, sessionID string) error {
			loggedOut = sessionID
			return nil
		},
	}

	r := newIdentityRouter(svc, userID, "sid-1")
	w := doJSON(r, http.MethodGet, "/me", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"has_pin":true`)
	assert.NotContains(t, w.Body.String(), "otp")

	w = doJSON(r, http.MethodPost, "/logout", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "sid-1", loggedOut)

	anon := newIdentityRouter(svc, uuid.Nil, "")
	assert.Equal(t, http.StatusUnauthorized, doJSON(anon, http.MethodGet, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, doJSON(anon, http.MethodPost, "/logout", "").Code)
}

func TestIdentityHandler_MeAndLogout_Errors(t *testing.T) {
	svc := identityServiceStub{
		getIdentityFn: func(context.Context, uuid.UUID) (*entities.IdentityView, error) {
			return nil, domainerrors.ErrNotFound
		},
		logoutFn: func(context.Context, string) error { return fmt.Errorf("redis: %w", domainerrors.ErrInvalidRequest) },
	}
	r := newIdentityRouter(svc, uuid.New(), "sid-1")

	assert.Equal(t, http.StatusNotFound, doJSON(r, http.MethodGet, "/me", "").Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(r, http.MethodPost, "/logout", "").Code)
}
