package model

// Scope carries the acting user and home of a single request. It is passed
// explicitly into every engine call.
type Scope struct {
	UserID string
	HomeID string
}

// Anonymous reports whether the request carried no identity.
func (s Scope) Anonymous() bool { return s.UserID == "" }
