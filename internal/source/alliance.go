package source

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"github.com/dpcfinder/dpc-enrich/internal/model"
	"github.com/dpcfinder/dpc-enrich/pkg/render"
)

const defaultAllianceBaseURL = "https://www.dpcalliance.org"

// AllianceFetcher pulls member profiles from the DPC Alliance directory.
// The directory is JS-rendered, so pages go through the reader proxy in
// HTML mode and keep their DOM for the selector-based extractor.
type AllianceFetcher struct {
	render  render.Client
	baseURL string
}

// NewAlliance creates an AllianceFetcher on top of a reader-proxy client.
func NewAlliance(r render.Client, baseURL string) *AllianceFetcher {
	if baseURL == "" {
		baseURL = defaultAllianceBaseURL
	}
	return &AllianceFetcher{render: r, baseURL: strings.TrimSuffix(baseURL, "/")}
}

func (f *AllianceFetcher) Name() string { return model.SourceAlliance }

// ListIDs renders the member directory and collects member IDs from profile
// links. Listing order is preserved; duplicates collapse to the first hit.
func (f *AllianceFetcher) ListIDs(ctx context.Context) ([]string, error) {
	page, err := f.render.Render(ctx, f.baseURL+"/directory", render.WithFormat("html"))
	if err != nil {
		return nil, eris.Wrap(err, "alliance: render directory")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.Content))
	if err != nil {
		return nil, eris.Wrap(err, "alliance: parse directory")
	}

	seen := map[string]bool{}
	var ids []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		id := memberIDFromHref(href)
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	})
	return ids, nil
}

// FetchByID renders one member profile. Removed members return (nil, nil).
func (f *AllianceFetcher) FetchByID(ctx context.Context, id string) (*RawRecord, error) {
	url := fmt.Sprintf("%s/member/%s", f.baseURL, id)
	page, err := f.render.Render(ctx, url, render.WithFormat("html"))
	if errors.Is(err, render.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "alliance: fetch member %s", id)
	}
	return &RawRecord{SourceID: id, URL: url, HTML: page.Content, Title: page.Title}, nil
}

// memberIDFromHref extracts the member ID from a /member/<id> link, absolute
// or relative.
func memberIDFromHref(href string) string {
	idx := strings.Index(href, "/member/")
	if idx < 0 {
		return ""
	}
	id := href[idx+len("/member/"):]
	id = strings.TrimSuffix(id, "/")
	if id == "" || strings.ContainsAny(id, "/?#") {
		return ""
	}
	return id
}
