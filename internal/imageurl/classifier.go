package imageurl

import (
	"regexp"
	"strings"
)

// imageExtensions are matched anywhere in the lower-cased URL.
var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp", ".svg", ".tiff", ".ico"}

// imageHosts are hosting services and CDNs that serve images directly.
var imageHosts = []string{
	// image hosting services
	"imgur.com",
	"i.imgur.com",
	"images.unsplash.com",
	"pixabay.com",
	"pexels.com",
	"flickr.com",
	"staticflickr.com",

	// google
	"googleusercontent.com",
	"drive.google.com",
	"lh3.googleusercontent.com",
	"lh4.googleusercontent.com",
	"lh5.googleusercontent.com",
	"lh6.googleusercontent.com",

	// social media CDNs
	"fbcdn.net",
	"twimg.com",
	"cdninstagram.com",
	"scontent.xx.fbcdn.net",

	// cloud storage
	"dropbox.com",
	"dl.dropboxusercontent.com",
	"onedrive.live.com",
	"1drv.ms",

	// CDNs and code hosting
	"cloudinary.com",
	"amazonaws.com",
	"cloudfront.net",
	"fastly.com",
	"jsdelivr.net",
	"github.com",
	"raw.githubusercontent.com",

	// other image services
	"tinypic.com",
	"photobucket.com",
	"imageshack.us",
	"postimg.cc",
	"imgbb.com",
	"ibb.co",
	"via.placeholder.com",
	"placeholder.com",
	"picsum.photos",

	// stock photo sites
	"shutterstock.com",
	"gettyimages.com",
	"istockphoto.com",
	"alamy.com",

	// blog and CMS hosting
	"wordpress.com",
	"blogger.com",
	"medium.com",
	"squarespace.com",
	"wix.com",
	"weebly.com",
}

var imageHints = []string{"image", "photo", "picture"}

var imageFormatPattern = regexp.MustCompile(`(?i)\.(jpg|jpeg|png|gif|bmp|webp|svg|tiff|ico)(\?|$|#)`)

// IsDirectImageURL reports whether u likely resolves to an image without further rewriting.
// It is a string heuristic; no request is made.
func IsDirectImageURL(u string) bool {
	if strings.TrimSpace(u) == "" {
		return false
	}

	lower := strings.ToLower(u)

	if containsAny(lower, imageExtensions) {
		return true
	}

	if containsAny(lower, imageHosts) {
		return true
	}

	if containsAny(lower, imageHints) {
		return true
	}

	return imageFormatPattern.MatchString(u)
}

// ImageHosts returns a copy of the known image host list.
func ImageHosts() []string {
	hosts := make([]string, len(imageHosts))
	copy(hosts, imageHosts)

	return hosts
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}

	return false
}
