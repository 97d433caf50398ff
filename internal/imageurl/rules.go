package imageurl

import (
	"net/url"
	"regexp"
	"strings"
)

// target is the input to a rule: the trimmed address plus pre-computed match forms.
type target struct {
	raw      string
	lower    string
	host     string
	hostPath string
}

func newTarget(raw string) target {
	t := target{
		raw:   raw,
		lower: strings.ToLower(raw),
	}

	if u, err := url.Parse(raw); err == nil {
		t.host = strings.ToLower(u.Host)
		t.hostPath = strings.ToLower(u.Host + u.Path)
	} else {
		head, _, _ := strings.Cut(t.lower, "?")
		head, _, _ = strings.Cut(head, "#")
		t.hostPath = head
	}

	return t
}

func (t target) on(hosts ...string) bool {
	return containsAny(t.hostPath, hosts)
}

// Rule is one step of the rewrite chain. Apply returns false to let the next rule run.
type Rule struct {
	Match func(t target) bool
	Apply func(n *Normalizer, t target) (string, bool)
	Name  string
}

const (
	googlePhotosSizing  = "=w800-h400-c"
	driveDirectTemplate = "https://drive.google.com/uc?export=view&id="
)

// Drive id patterns, tried in this order.
var driveIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/file/d/([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`[?&]id=([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`/uc\?.*id=([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`/d/([a-zA-Z0-9_-]+)/view`),
}

var (
	dropboxWWWPattern  = regexp.MustCompile(`(?i)www\.dropbox\.com`)
	imgurPattern       = regexp.MustCompile(`(?i)imgur\.com/([a-zA-Z0-9]+)`)
	unsplashPattern    = regexp.MustCompile(`photos/([a-zA-Z0-9_-]+)`)
	embeddedURLPattern = regexp.MustCompile(`url=([^&]+)`)
)

// DefaultRules returns the rewrite chain in priority order.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "yahoo-image-search", Match: onHosts("images.search.yahoo.com"), Apply: applyYahooSearch},
		{Name: "google-image-search", Match: onHosts("images.google.com", "www.google.com/imgres"), Apply: applySearchParams("imgurl", "url")},
		{Name: "bing-image-search", Match: onHosts("bing.com/images"), Apply: applySearchParams("mediaurl")},
		{Name: "google-drive", Match: onHosts("drive.google.com"), Apply: applyGoogleDrive},
		{Name: "google-photos", Match: onHosts("photos.google.com", "photos.app.goo.gl"), Apply: applyGooglePhotos},
		{Name: "dropbox", Match: onHosts("dropbox.com"), Apply: applyDropbox},
		{Name: "onedrive", Match: onHosts("onedrive.live.com"), Apply: applyOneDrive},
		{Name: "icloud", Match: onHosts("icloud.com"), Apply: passthrough},
		{Name: "imgur", Match: func(t target) bool { return t.on("imgur.com") && !t.on("i.imgur.com") }, Apply: applyImgur},
		{Name: "instagram", Match: onHosts("instagram.com"), Apply: degrade("Instagram image - please use direct image URL")},
		{Name: "facebook", Match: onHosts("facebook.com", "fbcdn.net"), Apply: applyFacebook},
		{Name: "wetransfer", Match: onHosts("wetransfer.com"), Apply: degrade("WeTransfer - please use permanent image URL")},
		{Name: "mediafire", Match: onHosts("mediafire.com"), Apply: passthrough},
		{Name: "github", Match: func(t target) bool {
			return t.on("github.com") && !t.on("raw.githubusercontent.com") && strings.Contains(t.hostPath, "/blob/")
		}, Apply: applyGitHub},
		{Name: "unsplash", Match: onHosts("unsplash.com"), Apply: applyUnsplash},
		{Name: "flickr", Match: onHosts("flickr.com"), Apply: passthrough},
		{Name: "pinterest", Match: onHosts("pinterest.com"), Apply: applyPinterest},
		{Name: "direct-image", Match: func(t target) bool { return IsDirectImageURL(t.raw) }, Apply: passthrough},
		{Name: "web-page", Match: func(t target) bool { return strings.HasPrefix(t.lower, "http") }, Apply: applyWebPage},
	}
}

func onHosts(hosts ...string) func(t target) bool {
	return func(t target) bool {
		return t.on(hosts...)
	}
}

func passthrough(_ *Normalizer, t target) (string, bool) {
	return t.raw, true
}

func degrade(message string) func(n *Normalizer, t target) (string, bool) {
	return func(n *Normalizer, _ target) (string, bool) {
		return n.placeholder.ForAddress(message), true
	}
}

// queryOf returns the query string between the first '?' and the next '?' or '#'.
func queryOf(raw string) url.Values {
	_, query, found := strings.Cut(raw, "?")
	if !found {
		return url.Values{}
	}

	query, _, _ = strings.Cut(query, "?")
	query, _, _ = strings.Cut(query, "#")

	// partial results are still usable when some pairs are malformed
	values, _ := url.ParseQuery(query)

	return values
}

// decodeOnce undoes an extra level of percent-encoding, keeping s when it is not valid encoding.
func decodeOnce(s string) string {
	decoded, err := url.PathUnescape(s)
	if err != nil {
		return s
	}

	return decoded
}

func applySearchParams(params ...string) func(n *Normalizer, t target) (string, bool) {
	return func(_ *Normalizer, t target) (string, bool) {
		values := queryOf(t.raw)

		for _, param := range params {
			if !values.Has(param) {
				continue
			}

			candidate := decodeOnce(values.Get(param))
			if candidate != "" && IsDirectImageURL(candidate) {
				return candidate, true
			}

			return "", false
		}

		return "", false
	}
}

func applyYahooSearch(n *Normalizer, t target) (string, bool) {
	values := queryOf(t.raw)

	if values.Has("imgurl") {
		return applySearchParams("imgurl")(n, t)
	}

	if p := values.Get("p"); strings.HasPrefix(p, "http") && IsDirectImageURL(p) {
		return p, true
	}

	return "", false
}

// DriveFileID extracts a Google Drive file id, trying each known link shape in order.
func DriveFileID(raw string) (string, bool) {
	for _, pattern := range driveIDPatterns {
		if m := pattern.FindStringSubmatch(raw); m != nil {
			return m[1], true
		}
	}

	return "", false
}

func applyGoogleDrive(n *Normalizer, t target) (string, bool) {
	id, ok := DriveFileID(t.raw)
	if !ok {
		n.debug("could not extract Google Drive file ID", "url", t.raw)

		return t.raw, true
	}

	return driveDirectTemplate + id, true
}

func applyGooglePhotos(_ *Normalizer, t target) (string, bool) {
	if strings.Contains(t.lower, "googleusercontent.com") && !strings.Contains(t.raw, "=") {
		return t.raw + googlePhotosSizing, true
	}

	return t.raw, true
}

func applyDropbox(_ *Normalizer, t target) (string, bool) {
	switch {
	case strings.Contains(t.raw, "/s/") && !strings.Contains(t.raw, "?dl=1"):
		direct := dropboxWWWPattern.ReplaceAllString(t.raw, "dl.dropboxusercontent.com")
		direct = strings.Replace(direct, "?dl=0", "", 1)
		direct, _, _ = strings.Cut(direct, "?")

		return direct, true
	case strings.Contains(t.raw, "?dl=0"):
		return strings.Replace(t.raw, "?dl=0", "?dl=1", 1), true
	}

	return "", false
}

func applyOneDrive(_ *Normalizer, t target) (string, bool) {
	direct := strings.Replace(t.raw, "view.aspx", "download.aspx", 1)
	direct = strings.Replace(direct, "redir?", "download?", 1)

	return direct, true
}

func applyImgur(_ *Normalizer, t target) (string, bool) {
	m := imgurPattern.FindStringSubmatch(t.raw)
	if m == nil {
		return "", false
	}

	return "https://i.imgur.com/" + m[1] + ".jpg", true
}

func applyFacebook(n *Normalizer, t target) (string, bool) {
	if t.on("fbcdn.net") {
		return t.raw, true
	}

	return n.placeholder.ForAddress("Facebook image - please use direct image URL"), true
}

func applyGitHub(_ *Normalizer, t target) (string, bool) {
	u, err := url.Parse(t.raw)
	if err != nil || u.Host == "" {
		return "", false
	}

	u.Host = "raw.githubusercontent.com"
	u.Path = strings.Replace(u.Path, "/blob/", "/", 1)
	u.RawPath = ""

	return u.String(), true
}

func applyUnsplash(_ *Normalizer, t target) (string, bool) {
	m := unsplashPattern.FindStringSubmatch(t.raw)
	if m == nil {
		return "", false
	}

	return "https://images.unsplash.com/photo-" + m[1] + "?w=800&h=400&fit=crop", true
}

func applyPinterest(_ *Normalizer, t target) (string, bool) {
	m := embeddedURLPattern.FindStringSubmatch(t.raw)
	if m == nil {
		return "", false
	}

	decoded := decodeOnce(m[1])
	if !IsDirectImageURL(decoded) {
		return "", false
	}

	return decoded, true
}

func applyWebPage(n *Normalizer, t target) (string, bool) {
	return n.placeholder.ForAddress(t.raw), true
}
