package model

import "time"

// Account types accepted on signup. Unknown values fall back to INDIVIDUAL.
const (
	AccountTypeIndividual = "INDIVIDUAL"
	AccountTypeCompany    = "COMPANY"
	AccountTypeClub       = "CLUB"
)

// DefaultAccountName is used when signup does not provide one.
const DefaultAccountName = "My Account"

// Account is the billing entity created alongside every user.
type Account struct {
	ID        string
	UserID    string
	Name      string
	Type      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NormalizeAccountType maps arbitrary input onto a known account type.
func NormalizeAccountType(t string) string {
	switch t {
	case AccountTypeIndividual, AccountTypeCompany, AccountTypeClub:
		return t
	default:
		return AccountTypeIndividual
	}
}
