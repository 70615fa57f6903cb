// Package links formats the citation links the QA model returns into the
// "Sources:" block appended after an answer.
package links

import (
	"strings"

	"github.com/relaydesk/relaydesk/internal/ai"
)

const (
	sourcesHeader = "Sources:"
	untitled      = "Untitled"
)

// Serialize deduplicates a link list and renders it as a sources block.
//
// Two links refer to the same logical source when they share a URL or a
// (defaulted) title. On a URL collision the entry with the strictly shorter
// title survives; on a title collision the entry with the strictly shorter
// URL survives. Ties keep the earlier-seen entry. Links without a URL are
// dropped. An empty input renders the header line alone.
func Serialize(links []ai.Link) string {
	if len(links) == 0 {
		return sourcesHeader
	}

	var deduped []ai.Link
	for _, link := range links {
		if link.URL == "" {
			continue
		}
		title := link.Title
		if title == "" {
			title = untitled
		}

		if i := indexByURL(deduped, link.URL); i >= 0 {
			if len(title) < len(deduped[i].Title) {
				deduped[i] = ai.Link{URL: link.URL, Title: title}
			}
			continue
		}
		if i := indexByTitle(deduped, title); i >= 0 {
			if len(link.URL) < len(deduped[i].URL) {
				deduped[i] = ai.Link{URL: link.URL, Title: title}
			}
			continue
		}
		deduped = append(deduped, ai.Link{URL: link.URL, Title: title})
	}

	lines := make([]string, 0, len(deduped)+1)
	lines = append(lines, sourcesHeader)
	for _, link := range deduped {
		lines = append(lines, "%["+link.Title+"]("+link.URL+")")
	}
	return strings.Join(lines, "\n")
}

func indexByURL(links []ai.Link, url string) int {
	for i, l := range links {
		if l.URL == url {
			return i
		}
	}
	return -1
}

func indexByTitle(links []ai.Link, title string) int {
	for i, l := range links {
		if l.Title == title {
			return i
		}
	}
	return -1
}
