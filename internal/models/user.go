package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Role string

const (
	// RoleBorrower can request loans and repay the loans they own
	RoleBorrower Role = "borrower"

	// RoleLender can fund pending loans from their wallet
	RoleLender Role = "lender"
)

func (r Role) Valid() bool {
	return r == RoleBorrower || r == RoleLender
}

type User struct {
	ID             string          `db:"id"`
	Name           string          `db:"name"`
	Email          string          `db:"email"`
	HashedPassword string          `db:"hashed_password"`
	Role           Role            `db:"role"`
	WalletBalance  decimal.Decimal `db:"wallet_balance"`
	CreatedAt      time.Time       `db:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at"`
}

// Identity is the slice of a user the lifecycle engine needs for permission checks.
type Identity struct {
	ID            string
	Role          Role
	WalletBalance decimal.Decimal
}

func (u *User) Identity() Identity {
	return Identity{ID: u.ID, Role: u.Role, WalletBalance: u.WalletBalance}
}
