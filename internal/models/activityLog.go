package models

import "time"

type ActivityLog struct {
	ID          string    `db:"id"`
	UserID      string    `db:"user_id"`
	Entity      string    `db:"entity"`
	EntityId    string    `db:"entity_id"`
	Description string    `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
}

const (
	// ActivityLogLoanEntity is used in activities that concern a loan and the loans table
	ActivityLogLoanEntity = "loan"

	// ActivityLogWalletEntity is used in activities that concern a user's wallet balance
	ActivityLogWalletEntity = "wallet"

	// ActivityLogUserEntity is used in activities that concern the user account itself
	ActivityLogUserEntity = "user"
)
