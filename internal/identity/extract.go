// Package identity extracts the social identity (individual handle or
// community) a token advertises in its metadata.
package identity

import (
	"regexp"
	"strings"

	"devscope/internal/models"
)

var (
	communityPattern = regexp.MustCompile(`(?i)(?:https?://)?(?:www\.)?(?:twitter\.com/|x\.com/)i/communities/(\d+)`)
	profilePattern   = regexp.MustCompile(`(?i)(?:https?://)?(?:www\.)?(?:twitter\.com/|x\.com/)([a-zA-Z0-9_]+)`)
	bareHandle       = regexp.MustCompile(`^[a-zA-Z0-9_]{1,15}$`)
	// descriptionURL finds profile or community links embedded in free text.
	descriptionURL = regexp.MustCompile(`(?:https?://)?(?:www\.)?(?:twitter\.com/|x\.com/)[\w/]+`)
)

const communitiesPath = "i/communities/"

// Extract classifies a single text field. Precedence: community link,
// profile link, @handle, bare username. A bare short word is accepted as a
// username, so arbitrary short strings classify as individuals.
func Extract(input string) models.Identity {
	text := strings.TrimSpace(input)
	if text == "" {
		return models.Identity{}
	}

	if m := communityPattern.FindStringSubmatch(text); m != nil {
		return models.Identity{
			Kind:        models.IdentityCommunity,
			CommunityID: m[1],
			SourceText:  text,
		}
	}

	if handle, ok := profileHandle(text); ok {
		return individual(handle, text)
	}

	if strings.HasPrefix(text, "@") {
		return individual(strings.TrimSpace(text[1:]), text)
	}

	if bareHandle.MatchString(text) {
		return individual(text, text)
	}

	return models.Identity{}
}

// profileHandle returns the first profile path segment that is not the
// communities path.
func profileHandle(text string) (string, bool) {
	for _, loc := range profilePattern.FindAllStringSubmatchIndex(text, -1) {
		// loc[2] is where the path starts, right after the domain.
		if strings.HasPrefix(strings.ToLower(text[loc[2]:]), communitiesPath) {
			continue
		}
		return text[loc[2]:loc[3]], true
	}
	return "", false
}

func individual(handle, source string) models.Identity {
	return models.Identity{
		Kind:       models.IdentityIndividual,
		Handle:     strings.ToLower(handle),
		SourceText: source,
	}
}
