package enums

import "fmt"

// AuditAction names a state-changing action recorded in the audit trail.
type AuditAction string

const (
	AuditActionLogin               AuditAction = "LOGIN"
	AuditActionLogout              AuditAction = "LOGOUT"
	AuditActionRegister            AuditAction = "REGISTER"
	AuditActionProfileUpdate       AuditAction = "PROFILE_UPDATE"
	AuditActionPasswordChange      AuditAction = "PASSWORD_CHANGE"
	AuditActionRoleChange          AuditAction = "ROLE_CHANGE"
	AuditActionLeadershipAssign    AuditAction = "LEADERSHIP_ASSIGN"
	AuditActionLeadershipRevoke    AuditAction = "LEADERSHIP_REVOKE"
	AuditActionCommitteeJoin       AuditAction = "COMMITTEE_JOIN"
	AuditActionCommitteeLeave      AuditAction = "COMMITTEE_LEAVE"
	AuditActionIdentityCreate      AuditAction = "IDENTITY_CREATE"
	AuditActionAdminIdentityCreate AuditAction = "ADMIN_IDENTITY_CREATE"
)

var validAuditActions = []AuditAction{
	AuditActionLogin,
	AuditActionLogout,
	AuditActionRegister,
	AuditActionProfileUpdate,
	AuditActionPasswordChange,
	AuditActionRoleChange,
	AuditActionLeadershipAssign,
	AuditActionLeadershipRevoke,
	AuditActionCommitteeJoin,
	AuditActionCommitteeLeave,
	AuditActionIdentityCreate,
	AuditActionAdminIdentityCreate,
}

// String implements fmt.Stringer.
func (a AuditAction) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AuditAction.
func (a AuditAction) IsValid() bool {
	for _, candidate := range validAuditActions {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAuditAction converts raw input into an AuditAction.
func ParseAuditAction(value string) (AuditAction, error) {
	for _, candidate := range validAuditActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid audit action %q", value)
}
