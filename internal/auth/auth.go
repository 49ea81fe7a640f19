package auth

// DenialMessage is sent to any user not on the allow-list.
const DenialMessage = "❌ You are not authorized to use this bot."

// Authorizer checks inbound user identifiers against a configured allow-list
type Authorizer struct {
	allowed map[int64]struct{}
}

// NewAuthorizer creates an authorizer for the given user ids
func NewAuthorizer(userIDs []int64) *Authorizer {
	allowed := make(map[int64]struct{}, len(userIDs))
	for _, id := range userIDs {
		allowed[id] = struct{}{}
	}
	return &Authorizer{allowed: allowed}
}

// IsAuthorized reports whether the user may drive the workflow
func (a *Authorizer) IsAuthorized(userID int64) bool {
	_, ok := a.allowed[userID]
	return ok
}
