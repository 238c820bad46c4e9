package models

// Actor is the identity a request acts as, built verbatim from the bearer
// token claims.
type Actor struct {
	ID       uint
	Username string
	IsAdmin  bool
}

// CanMutate reports whether the actor may edit or delete a resource owned
// by the given user. A nil owner means the resource has no author, which
// leaves it mutable by admins only.
func CanMutate(actor Actor, owner *uint) bool {
	if actor.IsAdmin {
		return true
	}
	if owner == nil {
		return false
	}
	return actor.ID == *owner
}
