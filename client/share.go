package client

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/rpupo63/fadarc-site-backend/models"
)

const whatsAppShareBase = "https://wa.me/?text="

// PostURL is the public page of a post on the site at origin.
func PostURL(origin string, id int64) string {
	return fmt.Sprintf("%s/blog/%d", strings.TrimSuffix(origin, "/"), id)
}

// ShareURL builds a WhatsApp share link for post.
func ShareURL(origin string, post models.BlogPost) string {
	text := fmt.Sprintf("Check out: \"%s\" - %s", post.Title, PostURL(origin, post.ID))
	// QueryEscape encodes spaces as '+', which WhatsApp shows literally
	return whatsAppShareBase + strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
}
