package injector

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

const (
	// MarkerID is the element whose presence means the page view was handled.
	MarkerID = "proton-rating-tester"
	// BadgeID is the id of the injected anchor.
	BadgeID = "proton-rating"
	// badgeStyleID is the id of the injected stylesheet.
	badgeStyleID = "proton-rating-style"
	// TargetSelector matches the compatibility label container on the app details page.
	TargetSelector = "[class^='appdetailsgameinfopanel_CompatLabel_']"
)

// tierColours maps a rating tier to its badge background.
var tierColours = []struct {
	tier   string
	colour string
}{
	{"platinum", "rgb(180, 199, 220)"},
	{"gold", "rgb(207, 181, 59)"},
	{"silver", "rgb(166, 166, 166)"},
	{"bronze", "rgb(205, 127, 50)"},
	{"borked", "red"},
}

// TierColour returns the background colour for tier and whether one is defined.
func TierColour(tier string) (string, bool) {
	for _, tc := range tierColours {
		if tc.tier == tier {
			return tc.colour, true
		}
	}
	return "", false
}

// Badge is the rendered rating element.
type Badge struct {
	AppID string
	Tier  string
	// Link points at the app page on the ratings site.
	Link string
	Logo string
}

// NewBadge builds a badge for appID linking back to the ratings site at baseURL.
func NewBadge(baseURL, appID, tier string) Badge {
	base := strings.TrimRight(baseURL, "/")
	return Badge{
		AppID: appID,
		Tier:  tier,
		Link:  base + "/app/" + appID,
		Logo:  base + "/sites/protondb/images/site-logo.svg",
	}
}

var badgeStyle = buildStyle()

func buildStyle() string {
	var b strings.Builder
	for _, tc := range tierColours {
		fmt.Fprintf(&b, ".rate_%s {\n    background-color: %s;\n    color: black;\n}\n", tc.tier, tc.colour)
	}
	b.WriteString(`.pdb_rating {
    color: black;
    letter-spacing: 2px;
    line-height: 27px;
    font-weight: 450;
    text-align: center;
    float: right;
    text-transform: uppercase;
}
`)
	return b.String()
}

var badgeTemplate = template.Must(template.New("badge").Parse(
	`<style id="{{.StyleID}}">{{.Style}}</style>` +
		`<a href="{{.Link}}" id="{{.BadgeID}}" class="rate_{{.Tier}}">` +
		`<img alt="ProtonDB Logo" style="float: left;" height="25" src="{{.Logo}}" width="23">` +
		`<div class="pdb_rating">{{.Tier}}</div>` +
		`</a>`))

// HTML renders the stylesheet and anchor. Dynamic values are escaped.
func (b Badge) HTML() (string, error) {
	var buf bytes.Buffer
	err := badgeTemplate.Execute(&buf, struct {
		Badge
		StyleID string
		BadgeID string
		Style   template.CSS
	}{b, badgeStyleID, BadgeID, template.CSS(badgeStyle)})
	if err != nil {
		return "", fmt.Errorf("render badge: %w", err)
	}
	return buf.String(), nil
}
