package embed

import (
	"fmt"
	"net/url"
	"strings"
)

// Marker classes wrap every snippet this package produces so a later run can
// strip and re-insert them without duplicating blocks.
const (
	MarkerClass        = "glazer-embed"
	MarkerClassMap     = "glazer-embed-map"
	MarkerClassPodcast = "glazer-embed-podcast"
	MarkerClassVideo   = "glazer-embed-video"
)

func wrap(kind, inner string) string {
	return fmt.Sprintf(`<div class="%s %s">%s</div>`, MarkerClass, kind, inner)
}

// MapEmbed renders a Google Maps iframe for the client's service area
func MapEmbed(businessName, city, state string) string {
	query := url.QueryEscape(strings.TrimSpace(fmt.Sprintf("%s %s %s", businessName, city, state)))
	iframe := fmt.Sprintf(
		`<iframe src="https://www.google.com/maps?q=%s&output=embed" width="100%%" height="400" style="border:0;" allowfullscreen="" loading="lazy" referrerpolicy="no-referrer-when-downgrade"></iframe>`,
		query)
	return wrap(MarkerClassMap, iframe)
}

// PodcastEmbed renders the hosted podcast player
func PodcastEmbed(playerURL string) string {
	iframe := fmt.Sprintf(
		`<iframe src="%s" width="100%%" height="150" frameborder="0" scrolling="no" loading="lazy"></iframe>`,
		playerURL)
	return wrap(MarkerClassPodcast, iframe)
}

// PodcastAudioEmbed renders a bare audio player for episodes that have a
// durable audio URL but no hosted player yet
func PodcastAudioEmbed(audioURL string) string {
	audio := fmt.Sprintf(`<audio src="%s" controls preload="none" style="width:100%%;"></audio>`, audioURL)
	return wrap(MarkerClassPodcast, audio)
}

// VideoEmbed renders the short-form video player. YouTube ids get the YouTube
// embed player, anything else a plain video tag against the stored asset.
func VideoEmbed(youtubeVideoID, videoURL string) string {
	if youtubeVideoID != "" {
		iframe := fmt.Sprintf(
			`<iframe src="https://www.youtube.com/embed/%s" width="100%%" height="480" frameborder="0" allow="accelerometer; autoplay; clipboard-write; encrypted-media; gyroscope; picture-in-picture" allowfullscreen loading="lazy"></iframe>`,
			youtubeVideoID)
		return wrap(MarkerClassVideo, iframe)
	}
	video := fmt.Sprintf(
		`<video src="%s" controls playsinline style="width:100%%;max-height:480px;"></video>`,
		videoURL)
	return wrap(MarkerClassVideo, video)
}
