package feed

import (
	"regexp"
	"strings"

	"github.com/cloudflare/ahocorasick"
	"github.com/fwojciec/adsift"
)

var (
	// adAttrPattern matches attribute "name:value" pairs that mark ads.
	adAttrPattern = regexp.MustCompile(`(?i)ad|sponsored|promo`)

	// adWordPattern matches ad indicators as whole words in visible text.
	adWordPattern = regexp.MustCompile(`(?i)\b(?:ad|ads|advertisement|sponsored|promo|promoted)\b`)

	verifiedMatcher = ahocorasick.NewStringMatcher([]string{"verified publisher", "verified"})
)

// IsAd reports whether n looks like an ad or promoted module.
func IsAd(n adsift.Node) bool {
	return isAd(n, adsift.DefaultSelectors().AdMarker)
}

func isAd(n adsift.Node, marker string) bool {
	if n == nil {
		return false
	}

	if role, ok := n.Attr("role"); ok && strings.Contains(strings.ToLower(role), "advert") {
		return true
	}

	for _, a := range n.Attrs() {
		if adAttrPattern.MatchString(a.Name + ":" + a.Value) {
			return true
		}
	}

	if marker != "" && len(n.Find(marker)) > 0 {
		return true
	}

	return adWordPattern.MatchString(n.Text())
}

// IsVerifiedPublisher reports whether n's text carries a verified-publisher label.
func IsVerifiedPublisher(n adsift.Node) bool {
	if n == nil {
		return false
	}
	text := strings.ToLower(n.Text())
	if text == "" {
		return false
	}
	return len(verifiedMatcher.MatchThreadSafe([]byte(text))) > 0
}
