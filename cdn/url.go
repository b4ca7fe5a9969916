// Package cdn builds delivery URLs for photos hosted on Cloudinary and
// uploads new ones.
package cdn

import (
	"strconv"
	"strings"
)

// Preset names a delivery transformation.
type Preset string

const (
	Thumbnail Preset = "thumbnail"
	Card      Preset = "card"
	Hero      Preset = "hero"
	Gallery   Preset = "gallery"
	Full      Preset = "full"
)

type size struct{ w, h int }

var presets = map[Preset]size{
	Thumbnail: {150, 150},
	Card:      {600, 450},
	Hero:      {1200, 600},
	Gallery:   {800, 0},
	Full:      {1600, 0},
}

const deliveryBase = "https://res.cloudinary.com/"

// URLBuilder derives photo URLs from stored blob keys.
type URLBuilder struct {
	Cloud  string
	Folder string
}

// URL returns the delivery URL of key under preset, or "" when key or the
// cloud name is unset. Unknown presets fall back to Card.
func (b URLBuilder) URL(key string, p Preset) string {
	if key == "" || b.Cloud == "" {
		return ""
	}
	sz, ok := presets[p]
	if !ok {
		sz = presets[Card]
	}
	t := []string{"f_auto", "q_auto:eco", "w_" + strconv.Itoa(sz.w)}
	if sz.h > 0 {
		t = append(t, "h_"+strconv.Itoa(sz.h), "c_fill")
	} else {
		t = append(t, "c_limit")
	}
	t = append(t, "g_auto")
	return deliveryBase + b.Cloud + "/image/upload/" + strings.Join(t, ",") + "/" + b.publicID(key)
}

// Raw returns the URL of key with automatic format and quality only.
func (b URLBuilder) Raw(key string) string {
	if key == "" || b.Cloud == "" {
		return ""
	}
	return deliveryBase + b.Cloud + "/image/upload/f_auto,q_auto:eco/" + b.publicID(key)
}

// publicID prefixes key with the folder unless it already carries it.
func (b URLBuilder) publicID(key string) string {
	if b.Folder == "" || strings.HasPrefix(key, b.Folder+"/") {
		return key
	}
	return b.Folder + "/" + key
}
