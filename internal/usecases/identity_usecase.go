package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"myfi.backend/internal/domain/entities"
	domainerrors "myfi.backend/internal/domain/errors"
	"myfi.backend/internal/domain/repositories"
	"myfi.backend/internal/infrastructure/metrics"
	"myfi.backend/pkg/crypto"
	"myfi.backend/pkg/jwt"
	"myfi.backend/pkg/logger"
)

const (
	// DefaultPendingTTL bounds how long an unverified signup survives
	DefaultPendingTTL = 180 * time.Second
	// PinGrantTTL bounds how long after OTP verification a pin may be set
	PinGrantTTL = 5 * time.Minute

	messageSuccess = "SUCCESS."
	sessionIDBytes = 24
)

var (
	errOTPMismatch = fmt.Errorf("otp mismatch: %w: %w", domainerrors.ErrInvalidRequest, domainerrors.ErrUnauthorized)
	errPINMismatch = fmt.Errorf("pin mismatch: %w: %w", domainerrors.ErrInvalidRequest, domainerrors.ErrUnauthorized)
	errPINNotSet   = fmt.Errorf("pin not set: %w: %w", domainerrors.ErrInvalidRequest, domainerrors.ErrUnauthorized)
	errPINNoGrant  = fmt.Errorf("pin change needs a fresh otp verification: %w: %w", domainerrors.ErrInvalidRequest, domainerrors.ErrUnauthorized)

	hashPIN            = crypto.HashPIN
	generateSessionID  = func() (string, error) { return crypto.GenerateRandomToken(sessionIDBytes) }
	newIdentityUserID  = uuid.New
	observeIdentityOps = metrics.ObserveIdentity
)

// OTPSender delivers a freshly issued code to the contact it was issued for
type OTPSender interface {
	SendOTP(ctx context.Context, contact entities.ContactMethod, otp string) error
}

// LogOTPSender writes codes to the debug log. Used until a mail/SMS gateway is configured.
type LogOTPSender struct{}

func (LogOTPSender) SendOTP(ctx context.Context, contact entities.ContactMethod, otp string) error {
	logger.Debug(ctx, "OTP issued",
		zap.String("channel", string(contact.Channel())),
		zap.String("contact", contact.Value()),
		zap.String("otp", otp),
	)
	return nil
}

// IdentityUsecase drives a contact from signup through OTP and PIN verification.
// All state lives in the identity store, so any number of instances can serve
// the same user.
type IdentityUsecase struct {
	store      repositories.IdentityStore
	sessions   repositories.SessionRepository
	otp        crypto.OTPGenerator
	sender     OTPSender
	jwtService *jwt.JWTService
	pendingTTL time.Duration
	now        func() time.Time
}

// NewIdentityUsecase creates a new identity usecase
func NewIdentityUsecase(
	store repositories.IdentityStore,
	sessions repositories.SessionRepository,
	otp crypto.OTPGenerator,
	sender OTPSender,
	jwtService *jwt.JWTService,
	pendingTTL time.Duration,
) *IdentityUsecase {
	if pendingTTL <= 0 {
		pendingTTL = DefaultPendingTTL
	}
	if sender == nil {
		sender = LogOTPSender{}
	}
	return &IdentityUsecase{
		store:      store,
		sessions:   sessions,
		otp:        otp,
		sender:     sender,
		jwtService: jwtService,
		pendingTTL: pendingTTL,
		now:        time.Now,
	}
}

// Signup issues an OTP for contact. A contact that is already confirmed keeps
// its user id and gets the code on its confirmed record; any other contact gets
// a pending record that expires after the pending TTL.
func (u *IdentityUsecase) Signup(ctx context.Context, contact entities.ContactMethod) (res *entities.SignupResult, err error) {
	defer func() { observeIdentityOps("signup", err) }()

	if contact == nil {
		return nil, fmt.Errorf("no contact supplied: %w", domainerrors.ErrInvalidRequest)
	}

	code, err := u.otp.Generate()
	if err != nil {
		return nil, err
	}
	now := u.now()

	confirmed, err := u.store.Get(ctx, repositories.NamespaceUser, contact.Value())
	switch {
	case err == nil:
		confirmed.SetOTP(contact, code)
		confirmed.RetryCount++
		confirmed.UpdatedAt = now
		if err := u.writeConfirmed(ctx, confirmed); err != nil {
			return nil, err
		}
		if err := u.deliver(ctx, contact, code); err != nil {
			return nil, err
		}
		return &entities.SignupResult{UserID: confirmed.UserID, IsExistingUser: true, Message: messageSuccess}, nil
	case !errors.Is(err, domainerrors.ErrNotFound):
		return nil, storeFailure("read confirmed record", err)
	}

	pending, err := u.store.Get(ctx, repositories.NamespacePendingUser, contact.Value())
	switch {
	case err == nil:
		pending.RetryCount++
		pending.UpdatedAt = now
	case errors.Is(err, domainerrors.ErrNotFound):
		pending = entities.NewIdentityRecord(newIdentityUserID(), contact, now)
	default:
		return nil, storeFailure("read pending record", err)
	}
	pending.SetOTP(contact, code)

	if err := u.store.Set(ctx, repositories.NamespacePendingUser, contact.Value(), pending, u.pendingTTL); err != nil {
		return nil, storeFailure("write pending record", err)
	}
	if err := u.deliver(ctx, contact, code); err != nil {
		return nil, err
	}

	logger.Info(ctx, "Signup pending verification",
		zap.String("user_id", pending.UserID.String()),
		zap.String("channel", string(contact.Channel())),
		zap.Int("retry_count", pending.RetryCount),
	)
	return &entities.SignupResult{UserID: pending.UserID, IsExistingUser: false, Message: messageSuccess}, nil
}

// VerifyOtp checks a submitted code against the confirmed record for the
// contact, falling back to the pending record. A pending match is promoted to
// the confirmed namespace under both the contact and the user id.
func (u *IdentityUsecase) VerifyOtp(ctx context.Context, sub entities.OtpSubmission) (res *entities.VerifyOtpResult, err error) {
	defer func() { observeIdentityOps("verify_otp", err) }()

	if sub.Contact == nil || sub.OTP == "" || sub.UserID == uuid.Nil {
		return nil, fmt.Errorf("incomplete otp submission: %w", domainerrors.ErrInvalidRequest)
	}
	now := u.now()

	confirmed, err := u.store.Get(ctx, repositories.NamespaceUser, sub.Contact.Value())
	switch {
	case err == nil:
		if !otpMatches(confirmed, sub) {
			return nil, errOTPMismatch
		}
		// Codes are single use.
		confirmed.SetOTP(sub.Contact, "")
		confirmed.GrantPinChange(now.Add(PinGrantTTL))
		confirmed.UpdatedAt = now
		if err := u.writeConfirmed(ctx, confirmed); err != nil {
			return nil, err
		}
		return &entities.VerifyOtpResult{UserID: confirmed.UserID, IsExistingUser: true, Message: messageSuccess}, nil
	case !errors.Is(err, domainerrors.ErrNotFound):
		return nil, storeFailure("read confirmed record", err)
	}

	pending, err := u.store.Get(ctx, repositories.NamespacePendingUser, sub.Contact.Value())
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, fmt.Errorf("no signup for contact: %w", domainerrors.ErrNotFound)
		}
		return nil, storeFailure("read pending record", err)
	}
	if !otpMatches(pending, sub) {
		return nil, errOTPMismatch
	}

	// Confirmed keys are written before the pending key is dropped so a failure
	// in between never loses the identity.
	promoted := pending.Confirmed(now)
	promoted.GrantPinChange(now.Add(PinGrantTTL))
	if err := u.writeConfirmed(ctx, promoted); err != nil {
		return nil, err
	}
	if _, err := u.store.Delete(ctx, repositories.NamespacePendingUser, sub.Contact.Value()); err != nil {
		return nil, storeFailure("delete pending record", err)
	}

	logger.Info(ctx, "Contact verified",
		zap.String("user_id", promoted.UserID.String()),
		zap.String("channel", string(sub.Contact.Channel())),
	)
	return &entities.VerifyOtpResult{UserID: promoted.UserID, IsExistingUser: false, Message: messageSuccess}, nil
}

// SetPin stores a bcrypt hash of pin on the confirmed record of userID. It
// consumes the grant left by the last OTP verification, so knowing a user id
// is never enough to replace a pin.
func (u *IdentityUsecase) SetPin(ctx context.Context, userID uuid.UUID, pin string) (res *entities.SetPinResult, err error) {
	defer func() { observeIdentityOps("set_pin", err) }()

	if !crypto.ValidatePIN(pin) {
		return nil, fmt.Errorf("pin must be %d-%d digits: %w", crypto.MinPinLength, crypto.MaxPinLength, domainerrors.ErrInvalidRequest)
	}

	rec, err := u.confirmedByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := u.now()
	if !rec.CanSetPin(now) {
		logger.Warn(ctx, "PIN change without OTP grant", zap.String("user_id", userID.String()))
		return nil, errPINNoGrant
	}

	hash, err := hashPIN(pin)
	if err != nil {
		return nil, err
	}
	rec.PinHash = hash
	rec.PinGrantUntil = nil
	rec.UpdatedAt = now

	if err := u.writeConfirmed(ctx, rec); err != nil {
		return nil, err
	}
	return &entities.SetPinResult{UserID: rec.UserID, Message: messageSuccess}, nil
}

// VerifyPin checks pin against the stored hash and opens a session on success
func (u *IdentityUsecase) VerifyPin(ctx context.Context, userID uuid.UUID, pin string) (res *entities.VerifyPinResult, err error) {
	defer func() { observeIdentityOps("verify_pin", err) }()

	if pin == "" {
		return nil, fmt.Errorf("empty pin: %w", domainerrors.ErrInvalidRequest)
	}

	rec, err := u.confirmedByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !rec.HasPin() {
		return nil, errPINNotSet
	}
	if !crypto.CheckPIN(pin, rec.PinHash) {
		logger.Warn(ctx, "PIN mismatch", zap.String("user_id", userID.String()))
		return nil, errPINMismatch
	}

	sessionID, err := generateSessionID()
	if err != nil {
		return nil, err
	}
	now := u.now()
	ttl := u.jwtService.SessionExpiry()
	session := &entities.Session{
		ID:        sessionID,
		UserID:    rec.UserID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	token, err := u.jwtService.GenerateSessionToken(rec.UserID, sessionID, now)
	if err != nil {
		return nil, err
	}
	if err := u.sessions.Create(ctx, session, ttl); err != nil {
		return nil, storeFailure("write session", err)
	}

	return &entities.VerifyPinResult{
		UserID:       rec.UserID,
		IsVerified:   true,
		Message:      messageSuccess,
		SessionToken: token,
		ExpiresAt:    session.ExpiresAt,
	}, nil
}

// GetIdentity returns the public view of a confirmed identity
func (u *IdentityUsecase) GetIdentity(ctx context.Context, userID uuid.UUID) (*entities.IdentityView, error) {
	rec, err := u.store.Get(ctx, repositories.NamespaceUser, userID.String())
	if err != nil {
		return nil, err
	}
	return &entities.IdentityView{
		UserID:    rec.UserID,
		Email:     rec.Email,
		Mobile:    rec.Mobile,
		HasPin:    rec.HasPin(),
		CreatedAt: rec.CreatedAt,
	}, nil
}

// Authenticate resolves a session token to a live session. The token must be
// valid, its session must still exist and the user must still be confirmed.
func (u *IdentityUsecase) Authenticate(ctx context.Context, token string) (*entities.Session, error) {
	claims, err := u.jwtService.ValidateToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domainerrors.ErrUnauthorized, err)
	}

	session, err := u.sessions.Get(ctx, claims.SessionID())
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, fmt.Errorf("session revoked or expired: %w", domainerrors.ErrUnauthorized)
		}
		return nil, err
	}
	if session.UserID != claims.UserID {
		return nil, fmt.Errorf("session user mismatch: %w", domainerrors.ErrUnauthorized)
	}

	if _, err := u.store.Get(ctx, repositories.NamespaceUser, claims.UserID.String()); err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, fmt.Errorf("identity no longer confirmed: %w", domainerrors.ErrUnauthorized)
		}
		return nil, err
	}
	return session, nil
}

// Logout revokes a session
func (u *IdentityUsecase) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return domainerrors.ErrInvalidRequest
	}
	return u.sessions.Delete(ctx, sessionID)
}

func (u *IdentityUsecase) confirmedByUserID(ctx context.Context, userID uuid.UUID) (*entities.IdentityRecord, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("missing user id: %w", domainerrors.ErrInvalidRequest)
	}
	rec, err := u.store.Get(ctx, repositories.NamespaceUser, userID.String())
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, fmt.Errorf("user not confirmed: %w", domainerrors.ErrInvalidRequest)
		}
		return nil, storeFailure("read confirmed record", err)
	}
	return rec, nil
}

// writeConfirmed keeps the user id key and every contact key pointing at the same record
func (u *IdentityUsecase) writeConfirmed(ctx context.Context, rec *entities.IdentityRecord) error {
	if err := u.store.Set(ctx, repositories.NamespaceUser, rec.UserID.String(), rec, 0); err != nil {
		return storeFailure("write confirmed record", err)
	}
	for _, c := range rec.Contacts() {
		if err := u.store.Set(ctx, repositories.NamespaceUser, c.Value(), rec, 0); err != nil {
			return storeFailure("write confirmed record", err)
		}
	}
	return nil
}

func (u *IdentityUsecase) deliver(ctx context.Context, contact entities.ContactMethod, code string) error {
	if err := u.sender.SendOTP(ctx, contact, code); err != nil {
		logger.Error(ctx, "OTP delivery failed", zap.String("channel", string(contact.Channel())), zap.Error(err))
		return fmt.Errorf("deliver otp: %w: %w", domainerrors.ErrInvalidRequest, err)
	}
	return nil
}

func otpMatches(rec *entities.IdentityRecord, sub entities.OtpSubmission) bool {
	// Both checks run so timing does not reveal which one failed.
	idOK := rec.UserID == sub.UserID
	codeOK := crypto.CompareOTP(sub.OTP, rec.OTPFor(sub.Contact))
	return idOK && codeOK
}

func storeFailure(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domainerrors.ErrInvalidRequest, err)
}
