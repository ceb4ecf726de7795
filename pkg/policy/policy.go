// Package policy maps roles to capabilities so authorization is decided
// in one place instead of role-string comparisons scattered per endpoint.
package policy

type Capability string

const (
	CapCheckInTicket Capability = "ticket:checkin"
	CapViewAnyTicket Capability = "ticket:view-any"
	CapManageEvents  Capability = "event:manage"
	CapViewReports   Capability = "report:view"
)

var rolePermissions = map[string]map[Capability]bool{
	"customer": {},
	"staff": {
		CapCheckInTicket: true,
		CapViewAnyTicket: true,
	},
	"organizer": {
		CapCheckInTicket: true,
		CapViewAnyTicket: true,
		CapManageEvents:  true,
		CapViewReports:   true,
	},
	"admin": {
		CapCheckInTicket: true,
		CapViewAnyTicket: true,
		CapManageEvents:  true,
		CapViewReports:   true,
	},
}

// Allows reports whether the role grants the capability. Unknown roles
// grant nothing.
func Allows(role string, cap Capability) bool {
	perms, ok := rolePermissions[role]
	if !ok {
		return false
	}
	return perms[cap]
}
