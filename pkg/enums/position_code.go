package enums

import "fmt"

// PositionCode identifies an association leadership position.
type PositionCode string

const (
	PositionPresident       PositionCode = "PRESIDENT"
	PositionVicePresident   PositionCode = "VICE_PRESIDENT"
	PositionSecretary       PositionCode = "SECRETARY"
	PositionTreasurer       PositionCode = "TREASURER"
	PositionPublicRelations PositionCode = "PUBLIC_RELATIONS_OFFICER"
	PositionExecutiveMember PositionCode = "EXECUTIVE_MEMBER"
)

var validPositionCodes = []PositionCode{
	PositionPresident,
	PositionVicePresident,
	PositionSecretary,
	PositionTreasurer,
	PositionPublicRelations,
	PositionExecutiveMember,
}

var positionTitles = map[PositionCode]string{
	PositionPresident:       "President",
	PositionVicePresident:   "Vice President",
	PositionSecretary:       "Secretary",
	PositionTreasurer:       "Treasurer",
	PositionPublicRelations: "Public Relations Officer",
	PositionExecutiveMember: "Executive Member",
}

// String implements fmt.Stringer.
func (p PositionCode) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PositionCode.
func (p PositionCode) IsValid() bool {
	for _, candidate := range validPositionCodes {
		if candidate == p {
			return true
		}
	}
	return false
}

// DisplayTitle returns the human-readable title for the position.
func (p PositionCode) DisplayTitle() string {
	if title, ok := positionTitles[p]; ok {
		return title
	}
	return string(p)
}

// ParsePositionCode converts raw input into a PositionCode.
func ParsePositionCode(value string) (PositionCode, error) {
	for _, candidate := range validPositionCodes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid position code %q", value)
}

// PositionCodes returns the full catalog in display order.
func PositionCodes() []PositionCode {
	out := make([]PositionCode, len(validPositionCodes))
	copy(out, validPositionCodes)
	return out
}
