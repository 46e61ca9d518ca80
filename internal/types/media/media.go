package media

import "strings"

type Type string

const (
	TypeImage Type = "image"
	TypeVideo Type = "video"
)

// Item is one attachment of a post, in display order.
type Item struct {
	Type Type   `firestore:"type" json:"type"`
	URL  string `firestore:"url" json:"url"`
}

// TypeForContentType maps a MIME type onto the attachment kind.
func TypeForContentType(contentType string) Type {
	if strings.HasPrefix(contentType, "video/") {
		return TypeVideo
	}
	return TypeImage
}
