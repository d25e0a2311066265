package model

type UserAccount struct {
	FirstName     string
	LastName      string
	Username      string
	Email         string
	DateOfBirth   string
	Address       string
	City          string
	State         string
	ZipCode       string
	Country       string
	AccountNumber string
	AccountType   string
}
