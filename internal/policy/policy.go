// Package policy decides whether two marketplace identities may exchange
// messages. The predicate is evaluated on every send and never cached,
// because a user's affiliation can change.
package policy

import "campus-chat-service/internal/models"

// ReasonCrossCollege is returned when two plain members belong to
// different colleges.
const ReasonCrossCollege = "cross-college"

// CanMessage reports whether sender may message receiver, with a denial
// reason. The role pairs are enumerated explicitly: member-to-member is the
// only restricted pairing and requires a shared college; an admin, company
// or shop on either side lifts the restriction.
func CanMessage(sender, receiver models.User) (bool, string) {
	switch (rolePair{sender.Role, receiver.Role}) {
	case rolePair{models.RoleMember, models.RoleMember}:
		if sameCollege(sender, receiver) {
			return true, ""
		}
		return false, ReasonCrossCollege
	default:
		return true, ""
	}
}

type rolePair struct {
	sender, receiver models.Role
}

func sameCollege(a, b models.User) bool {
	return a.CollegeID != nil && b.CollegeID != nil && *a.CollegeID == *b.CollegeID
}
