package entities

import (
	"fmt"
	"strings"

	domainerrors "myfi.backend/internal/domain/errors"
)

// Channel identifies which contact channel an identity is verified through
type Channel string

const (
	ChannelEmail  Channel = "email"
	ChannelMobile Channel = "mobile"
)

// ContactMethod is either an EmailContact or a MobileContact, never both.
type ContactMethod interface {
	Channel() Channel
	Value() string
	contactMethod()
}

// EmailContact is an email address used as an identity key
type EmailContact string

func (EmailContact) Channel() Channel { return ChannelEmail }
func (e EmailContact) Value() string  { return string(e) }
func (EmailContact) contactMethod()   {}

// MobileContact is a mobile number used as an identity key
type MobileContact string

func (MobileContact) Channel() Channel { return ChannelMobile }
func (m MobileContact) Value() string  { return string(m) }
func (MobileContact) contactMethod()   {}

// NewContactMethod builds a contact from a request carrying exactly one of email/mobile.
func NewContactMethod(email, mobile string) (ContactMethod, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	mobile = strings.TrimSpace(mobile)

	switch {
	case email != "" && mobile != "":
		return nil, fmt.Errorf("both email and mobile supplied: %w", domainerrors.ErrInvalidRequest)
	case email != "":
		if !strings.Contains(email, "@") {
			return nil, fmt.Errorf("malformed email: %w", domainerrors.ErrInvalidRequest)
		}
		return EmailContact(email), nil
	case mobile != "":
		for _, r := range strings.TrimPrefix(mobile, "+") {
			if r < '0' || r > '9' {
				return nil, fmt.Errorf("malformed mobile: %w", domainerrors.ErrInvalidRequest)
			}
		}
		return MobileContact(mobile), nil
	default:
		return nil, fmt.Errorf("no contact supplied: %w", domainerrors.ErrInvalidRequest)
	}
}
