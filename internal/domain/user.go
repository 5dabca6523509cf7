package domain

// User is a person from the users list: requesters, approvers and agents.
type User struct {
	ID    int
	Name  string
	Email string
}

// Ref returns the user as a related person.
func (u User) Ref() PersonRef {
	return PersonRef{ID: u.ID, Title: u.Name, Email: u.Email}
}
