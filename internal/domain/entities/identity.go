package entities

import (
	"time"

	"github.com/google/uuid"
)

// IdentityRecord is the key-value representation of a user's identity.
// Pending records live under the new-user namespace keyed by contact; confirmed
// records live under the user namespace keyed by both contact and user id.
type IdentityRecord struct {
	UserID     uuid.UUID `json:"user_id"`
	Email      string    `json:"email,omitempty"`
	Mobile     string    `json:"mobile,omitempty"`
	EmailOTP   string    `json:"email_otp,omitempty"`
	MobileOTP  string    `json:"mobile_otp,omitempty"`
	PinHash    string    `json:"pin,omitempty"`
	RetryCount int       `json:"retry_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// PinGrantUntil is set by a successful OTP verification and lets one
	// SetPin through before it expires.
	PinGrantUntil *time.Time `json:"pin_grant_until,omitempty"`
}

// NewIdentityRecord creates a record bound to the given contact
func NewIdentityRecord(userID uuid.UUID, contact ContactMethod, now time.Time) *IdentityRecord {
	rec := &IdentityRecord{UserID: userID, CreatedAt: now, UpdatedAt: now}
	switch c := contact.(type) {
	case EmailContact:
		rec.Email = c.Value()
	case MobileContact:
		rec.Mobile = c.Value()
	}
	return rec
}

// OTPFor returns the outstanding code for the contact's channel
func (r *IdentityRecord) OTPFor(contact ContactMethod) string {
	switch contact.(type) {
	case EmailContact:
		return r.EmailOTP
	case MobileContact:
		return r.MobileOTP
	}
	return ""
}

// SetOTP stores a fresh code for the contact's channel
func (r *IdentityRecord) SetOTP(contact ContactMethod, otp string) {
	switch contact.(type) {
	case EmailContact:
		r.EmailOTP = otp
	case MobileContact:
		r.MobileOTP = otp
	}
}

// Confirmed returns the record as written to the confirmed namespace after
// OTP verification: codes cleared, no pin.
func (r *IdentityRecord) Confirmed(now time.Time) *IdentityRecord {
	return &IdentityRecord{
		UserID:     r.UserID,
		Email:      r.Email,
		Mobile:     r.Mobile,
		RetryCount: r.RetryCount,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  now,
	}
}

// HasPin reports whether a pin has been set
func (r *IdentityRecord) HasPin() bool {
	return r.PinHash != ""
}

// GrantPinChange allows one pin write until the given time
func (r *IdentityRecord) GrantPinChange(until time.Time) {
	r.PinGrantUntil = &until
}

// CanSetPin reports whether an unexpired pin grant is outstanding
func (r *IdentityRecord) CanSetPin(now time.Time) bool {
	return r.PinGrantUntil != nil && now.Before(*r.PinGrantUntil)
}

// Contacts returns every contact bound to the record
func (r *IdentityRecord) Contacts() []ContactMethod {
	var out []ContactMethod
	if r.Email != "" {
		out = append(out, EmailContact(r.Email))
	}
	if r.Mobile != "" {
		out = append(out, MobileContact(r.Mobile))
	}
	return out
}

// Session is an authenticated identity issued by pin verification
type Session struct {
	ID        string    `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SignupInput represents the body of a signup request
type SignupInput struct {
	Email  string `json:"email"`
	Mobile string `json:"mobile"`
}

// VerifyOtpInput represents the body of an OTP verification request
type VerifyOtpInput struct {
	UserID    string `json:"user_id" binding:"required"`
	Email     string `json:"email"`
	Mobile    string `json:"mobile"`
	EmailOTP  string `json:"email_otp"`
	MobileOTP string `json:"mobile_otp"`
}

// PinInput represents the body of set/verify pin requests
type PinInput struct {
	UserID string `json:"user_id" binding:"required"`
	Pin    string `json:"pin" binding:"required"`
}

// OtpSubmission is a validated OTP verification attempt
type OtpSubmission struct {
	UserID  uuid.UUID
	Contact ContactMethod
	OTP     string
}

// SignupResult is returned by signup
type SignupResult struct {
	UserID         uuid.UUID `json:"user_id"`
	IsExistingUser bool      `json:"is_existing_user"`
	Message        string    `json:"message"`
}

// VerifyOtpResult is returned by OTP verification
type VerifyOtpResult struct {
	UserID         uuid.UUID `json:"user_id"`
	IsExistingUser bool      `json:"is_existing_user"`
	Message        string    `json:"message"`
}

// SetPinResult is returned by set pin
type SetPinResult struct {
	UserID  uuid.UUID `json:"user_id"`
	Message string    `json:"message"`
}

// VerifyPinResult is returned by pin verification
type VerifyPinResult struct {
	UserID       uuid.UUID `json:"user_id"`
	IsVerified   bool      `json:"is_verified"`
	Message      string    `json:"message"`
	SessionToken string    `json:"session_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`
}

// IdentityView is the public projection of a confirmed identity
type IdentityView struct {
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email,omitempty"`
	Mobile    string    `json:"mobile,omitempty"`
	HasPin    bool      `json:"has_pin"`
	CreatedAt time.Time `json:"created_at"`
}
