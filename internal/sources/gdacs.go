package sources

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const gdacsRSSURL = "https://www.gdacs.org/xml/rss.xml"

const gdacsDescMaxLen = 200

// itemRe pulls each <item>...</item> block out of the feed. Deliberately not
// a real XML parser: the feed is small and loosely structured, and a strict
// parser is brittle against namespace drift.
var itemRe = regexp.MustCompile(`(?s)<item>(.*?)</item>`)

var gdacsFieldRe = map[string]*regexp.Regexp{
	"title":       regexp.MustCompile(`(?s)<title>(.*?)</title>`),
	"description": regexp.MustCompile(`(?s)<description>(.*?)</description>`),
	"pubDate":     regexp.MustCompile(`(?s)<pubDate>(.*?)</pubDate>`),
	"link":        regexp.MustCompile(`(?s)<link>(.*?)</link>`),
	"geoLat":      regexp.MustCompile(`(?s)<geo:lat>(.*?)</geo:lat>`),
	"gdacsLat":    regexp.MustCompile(`(?s)<gdacs:lat>(.*?)</gdacs:lat>`),
	"geoLong":     regexp.MustCompile(`(?s)<geo:long>(.*?)</geo:long>`),
	"gdacsLong":   regexp.MustCompile(`(?s)<gdacs:long>(.*?)</gdacs:long>`),
	"alertLevel":  regexp.MustCompile(`(?s)<gdacs:alertlevel>(.*?)</gdacs:alertlevel>`),
	"eventType":   regexp.MustCompile(`(?s)<gdacs:eventtype>(.*?)</gdacs:eventtype>`),
}

var htmlTagRe = regexp.MustCompile(`<[^>]*>`)

var htmlEntities = map[string]string{
	"&amp;":  "&",
	"&lt;":   "<",
	"&gt;":   ">",
	"&quot;": `"`,
	"&apos;": "'",
	"&nbsp;": " ",
	"&#39;":  "'",
}

var gdacsTypeMap = map[string]EventType{
	"EQ": TypeEarthquake,
	"TC": TypeHurricane,
	"FL": TypeFlood,
	"VO": TypeVolcano,
	"DR": TypeDrought,
	"WF": TypeWildfire,
}

// GDACSAdapter implements Adapter for the GDACS RSS/XML alert feed.
type GDACSAdapter struct{}

func NewGDACSAdapter() *GDACSAdapter { return &GDACSAdapter{} }

func (a *GDACSAdapter) ID() ID { return GDACS }

// Fetch extracts <item> blocks with regular expressions rather than a full
// XML parser.
func (a *GDACSAdapter) Fetch(ctx context.Context, fetch FetchFunc) ([]Event, error) {
	body, err := fetch(ctx, gdacsRSSURL, nil)
	if err != nil {
		return nil, err
	}
	text := string(body)

	var events []Event
	for _, m := range itemRe.FindAllStringSubmatch(text, -1) {
		item := m[1]

		lat := firstMatchFloat(item, gdacsFieldRe["geoLat"], gdacsFieldRe["gdacsLat"])
		lng := firstMatchFloat(item, gdacsFieldRe["geoLong"], gdacsFieldRe["gdacsLong"])
		if lat == 0 && lng == 0 {
			continue
		}

		alertLevel := strings.TrimSpace(firstMatch(item, gdacsFieldRe["alertLevel"]))
		if alertLevel == "" {
			alertLevel = "Green"
		}
		eventTypeCode := strings.TrimSpace(firstMatch(item, gdacsFieldRe["eventType"]))
		typ, ok := gdacsTypeMap[eventTypeCode]
		if !ok {
			typ = TypeOther
		}

		title := cleanText(firstMatch(item, gdacsFieldRe["title"]))
		desc := cleanText(firstMatch(item, gdacsFieldRe["description"]))
		if len(desc) > gdacsDescMaxLen {
			desc = desc[:gdacsDescMaxLen]
		}

		ts := time.Now().UTC()
		if raw := strings.TrimSpace(firstMatch(item, gdacsFieldRe["pubDate"])); raw != "" {
			if parsed, err := time.Parse(time.RFC1123Z, raw); err == nil {
				ts = parsed
			} else if parsed, err := time.Parse(time.RFC1123, raw); err == nil {
				ts = parsed
			}
		}

		events = append(events, Event{
			SourceID:    gdacsSourceID(),
			Source:      GDACS,
			Type:        typ,
			Severity:    gdacsSeverity(alertLevel),
			Lat:         lat,
			Lng:         lng,
			Radius:      RadiusForType(typ),
			Location:    title,
			Description: desc,
			Timestamp:   ts,
			URL:         strings.TrimSpace(firstMatch(item, gdacsFieldRe["link"])),
			AlertLevel:  alertLevel,
		})
	}
	return events, nil
}

// gdacsSourceID synthesizes an id since RSS items may not carry a stable
// one. The id is new on every fetch, so the same alert read twice gets two
// different ids.
func gdacsSourceID() string {
	return "gdacs-" + strconv.FormatInt(time.Now().UnixMilli(), 10) + "-" + uuid.New().String()[:8]
}

func gdacsSeverity(alertLevel string) int {
	switch alertLevel {
	case "Red":
		return 9
	case "Orange":
		return 7
	case "Green":
		return 4
	default:
		return 5
	}
}

func firstMatch(s string, re *regexp.Regexp) string {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return m[1]
}

func firstMatchFloat(s string, res ...*regexp.Regexp) float64 {
	for _, re := range res {
		if v := firstMatch(s, re); v != "" {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err == nil {
				return f
			}
		}
	}
	return 0
}

// cleanText strips CDATA wrappers, HTML tags, and common entities.
func cleanText(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "<![CDATA[")
	s = strings.TrimSuffix(s, "]]>")
	s = htmlTagRe.ReplaceAllString(s, "")
	for entity, repl := range htmlEntities {
		s = strings.ReplaceAll(s, entity, repl)
	}
	return strings.TrimSpace(s)
}
