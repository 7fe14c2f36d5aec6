package constants

import "strings"

// Profile selects prompt verbosity, token budget and page limit.
type Profile string

const (
	ProfileFast     Profile = "fast"
	ProfileThorough Profile = "thorough"
)

// FastPageLimit is the number of pages the fast profile sends to the model.
const FastPageLimit = 3

// ParseProfile maps user input to a Profile, falling back to fast.
func ParseProfile(s string) (Profile, bool) {
	switch Profile(strings.ToLower(strings.TrimSpace(s))) {
	case ProfileFast, "":
		return ProfileFast, true
	case ProfileThorough:
		return ProfileThorough, true
	}
	return ProfileFast, false
}

// PageLimit returns the page cap for p; 0 means all pages.
func (p Profile) PageLimit() int {
	if p == ProfileThorough {
		return 0
	}
	return FastPageLimit
}

// MaxTokens returns the completion budget per page for p.
func (p Profile) MaxTokens() int {
	if p == ProfileThorough {
		return 800
	}
	return 500
}
