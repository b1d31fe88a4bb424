package pipeline

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/glazehq/glazer/internal/models"
)

// BuildSEOSchema renders the JSON-LD graph embedded alongside the post:
// the FAQ entry for the PAA question, the local business, and whichever
// media artifacts came out ready.
func BuildSEOSchema(item *models.ContentItem, client *models.Client, blog *models.BlogPost, podcast *models.Podcast, video *models.Video) string {
	graph := []map[string]any{}

	business := map[string]any{
		"@type":    "AutoRepair",
		"name":     client.Name,
		"telephone": client.Phone,
		"url":      client.WebsiteURL,
		"address": map[string]any{
			"@type":           "PostalAddress",
			"addressLocality": client.City,
			"addressRegion":   client.State,
		},
	}
	graph = append(graph, business)

	answer := item.PAAQuestion
	if blog != nil && blog.MetaDescription != "" {
		answer = blog.MetaDescription
	}
	graph = append(graph, map[string]any{
		"@type": "FAQPage",
		"mainEntity": []map[string]any{{
			"@type": "Question",
			"name":  item.PAAQuestion,
			"acceptedAnswer": map[string]any{
				"@type": "Answer",
				"text":  answer,
			},
		}},
	})

	if video != nil && video.Status == models.JobReady {
		contentURL := video.StorageURL
		if contentURL == "" {
			contentURL = video.VideoURL
		}
		obj := map[string]any{
			"@type":        "VideoObject",
			"name":         video.Title,
			"description":  video.Description,
			"contentUrl":   contentURL,
			"thumbnailUrl": video.ThumbnailURL,
			"duration":     fmt.Sprintf("PT%dS", video.DurationSecs),
			"uploadDate":   video.UpdatedAt.Format(time.RFC3339),
		}
		if video.YouTubeVideoID != "" {
			obj["embedUrl"] = "https://www.youtube.com/embed/" + video.YouTubeVideoID
		}
		graph = append(graph, obj)
	}

	if podcast != nil && (podcast.Status == models.JobReady || podcast.Status == models.JobPublished) {
		title := item.PAAQuestion
		if blog != nil && blog.Title != "" {
			title = blog.Title
		}
		graph = append(graph, map[string]any{
			"@type":              "PodcastEpisode",
			"name":               title,
			"associatedMedia":    map[string]any{"@type": "MediaObject", "contentUrl": podcast.AudioURL},
			"timeRequired":       fmt.Sprintf("PT%dS", podcast.DurationSecs),
			"datePublished":      podcast.UpdatedAt.Format(time.RFC3339),
		})
	}

	doc := map[string]any{
		"@context": "https://schema.org",
		"@graph":   graph,
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return ""
	}
	return string(data)
}
