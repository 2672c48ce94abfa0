package model

import (
	"fmt"
	"strings"
)

// Page groups the bindings that belong on one dashboard screen.
type Page string

const (
	PageDashboard Page = "dashboard"
	PagePeers     Page = "peers"
	PageServers   Page = "servers"
)

// AllPages lists every page in display order.
func AllPages() []Page {
	return []Page{PageDashboard, PagePeers, PageServers}
}

// Title returns the human readable page name.
func (p Page) Title() string {
	switch p {
	case PageDashboard:
		return "Dashboard"
	case PagePeers:
		return "Peers"
	case PageServers:
		return "Servers"
	default:
		return string(p)
	}
}

// ParsePages parses a comma separated page list. An empty input selects all pages.
func ParsePages(raw string) ([]Page, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "all" {
		return AllPages(), nil
	}
	seen := make(map[Page]bool)
	var pages []Page
	for _, part := range strings.Split(raw, ",") {
		name := Page(strings.ToLower(strings.TrimSpace(part)))
		if name == "" {
			continue
		}
		switch name {
		case PageDashboard, PagePeers, PageServers:
		default:
			return nil, fmt.Errorf("unknown page %q", name)
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		pages = append(pages, name)
	}
	if len(pages) == 0 {
		return AllPages(), nil
	}
	return pages, nil
}
