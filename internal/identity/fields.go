package identity

import (
	"encoding/json"

	"github.com/tidwall/gjson"

	"devscope/internal/models"
)

var (
	tokenFields = []string{
		"metadata.twitter",
		"twitter",
		"social.twitter",
		"website",
	}
	metadataFields = []string{
		"twitter",
		"social.twitter",
		"website",
		"external_url",
		"external_link",
	}
	socialTraits = map[string]bool{
		"twitter": true,
		"Twitter": true,
		"social":  true,
		"Social":  true,
	}
)

// CandidateFields lists, in priority order, the text fields that may carry a
// social link: structured token fields, then fetched metadata fields, then
// descriptions, socials and attributes, and finally links found inside the
// descriptions. raw is the inbound token document and metadata the
// off-chain JSON document (either may be empty).
func CandidateFields(raw, metadata []byte) []string {
	var fields []string
	add := func(r gjson.Result) {
		if r.Type == gjson.String && r.Str != "" {
			fields = append(fields, r.Str)
		}
	}

	for _, path := range tokenFields {
		add(gjson.GetBytes(raw, path))
	}
	for _, path := range metadataFields {
		add(gjson.GetBytes(metadata, path))
	}

	metaDescription := gjson.GetBytes(metadata, "description")
	tokenDescription := gjson.GetBytes(raw, "description")
	add(metaDescription)
	add(tokenDescription)

	for _, doc := range [][]byte{raw, metadata} {
		socials := gjson.GetBytes(doc, "socials")
		if !socials.IsArray() {
			continue
		}
		socials.ForEach(func(_, social gjson.Result) bool {
			if social.Get("type").Str == "twitter" || social.Get("platform").Str == "twitter" {
				if url := social.Get("url"); url.Type == gjson.String && url.Str != "" {
					add(url)
				} else {
					add(social.Get("handle"))
				}
			}
			return true
		})
	}

	if attrs := gjson.GetBytes(metadata, "attributes"); attrs.IsArray() {
		attrs.ForEach(func(_, attr gjson.Result) bool {
			if socialTraits[attr.Get("trait_type").Str] {
				add(attr.Get("value"))
			}
			return true
		})
	}

	for _, desc := range []gjson.Result{metaDescription, tokenDescription} {
		if desc.Type != gjson.String {
			continue
		}
		fields = append(fields, descriptionURL.FindAllString(desc.Str, -1)...)
	}

	return fields
}

// FromFields returns the identity of the first field that yields one.
func FromFields(fields []string) models.Identity {
	for _, field := range fields {
		if id := Extract(field); id.Kind != models.IdentityNone {
			return id
		}
	}
	return models.Identity{}
}

// FromToken extracts the identity advertised by a token event and its
// fetched metadata.
func FromToken(ev models.TokenEvent, metadata []byte) models.Identity {
	raw := []byte(ev.Raw)
	if len(raw) == 0 {
		raw, _ = json.Marshal(ev)
	}
	return FromFields(CandidateFields(raw, metadata))
}
