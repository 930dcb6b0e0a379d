package domain

// User is the read-only view of a customer owned by the account system.
// The checkout service only resolves users to validate placement and to
// fill gateway customer metadata.
type User struct {
	ID      string
	Name    string
	Email   string
	Phone   string
	Address string
	City    string
	Country string
}
