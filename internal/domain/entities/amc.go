package entities

import (
	"time"

	"github.com/google/uuid"
)

// AMC represents an asset management company
type AMC struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	Address   string    `json:"address"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Website   string    `json:"website"`
	FundName  string    `json:"fund_name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AmcInput carries every overwritable AMC field, keyed by Code
type AmcInput struct {
	Name     string `json:"name" binding:"required"`
	Code     string `json:"code" binding:"required"`
	Address  string `json:"address"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Website  string `json:"website"`
	FundName string `json:"fund_name"`
}

// ApplyAmcFields overwrites every business field of a from in. ID and
// timestamps are left alone.
func ApplyAmcFields(a *AMC, in AmcInput) {
	a.Name = in.Name
	a.Code = in.Code
	a.Address = in.Address
	a.Email = in.Email
	a.Phone = in.Phone
	a.Website = in.Website
	a.FundName = in.FundName
}
