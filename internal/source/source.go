// Package source reads playable media from an HTML page: the first <video>
// element's poster, its <source> renditions and its <track> subtitles.
package source

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"adaptplay/internal/httputil"
	"adaptplay/internal/media"
)

// Page is what was found on a media page.
type Page struct {
	Info      media.Info
	Poster    string
	Sources   []media.Source
	Subtitles []media.SubtitleInfo
	SiteURL   string // Origin of the page, used to resolve subtitle links
}

// Playable reports whether the page offered at least one source.
func (p *Page) Playable() bool { return len(p.Sources) > 0 }

// Fetch downloads pageURL and parses it.
func Fetch(client *http.Client, pageURL string) (*Page, error) {
	resp, err := httputil.Get(client, pageURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return FromPage(resp.Body, pageURL)
}

// FromPage parses an HTML document. Poster and source links are resolved
// against pageURL; subtitle attributes are passed on exactly as found.
func FromPage(r io.Reader, pageURL string) (*Page, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parsing page URL: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	p := &Page{
		Info: media.Info{Title: pageTitle(doc), URL: pageURL},
	}
	if base.Scheme != "" && base.Host != "" {
		p.SiteURL = base.Scheme + "://" + base.Host
	}

	video := doc.Find("video").First()
	if video.Length() == 0 {
		return p, nil
	}

	if poster, ok := video.Attr("poster"); ok && strings.TrimSpace(poster) != "" {
		p.Poster = resolve(base, poster)
	}

	// <video src> without children is a single progressive source.
	if src, ok := video.Attr("src"); ok && strings.TrimSpace(src) != "" {
		p.Sources = append(p.Sources, media.Source{Src: resolve(base, src)})
	}
	video.Find("source").Each(func(_ int, s *goquery.Selection) {
		src := strings.TrimSpace(s.AttrOr("src", ""))
		if src == "" {
			return
		}
		p.Sources = append(p.Sources, media.Source{
			Src:  resolve(base, src),
			Type: strings.TrimSpace(s.AttrOr("type", "")),
		})
	})

	video.Find("track").Each(func(_ int, s *goquery.Selection) {
		if kind := s.AttrOr("kind", "subtitles"); kind != "subtitles" && kind != "captions" {
			return
		}
		p.Subtitles = append(p.Subtitles, media.SubtitleInfo{
			Src:     strings.TrimSpace(s.AttrOr("src", "")),
			SrcLang: strings.TrimSpace(s.AttrOr("srclang", "")),
			Label:   strings.TrimSpace(s.AttrOr("label", "")),
		})
	})

	return p, nil
}

// pageTitle prefers og:title and falls back to <title>.
func pageTitle(doc *goquery.Document) string {
	if t, ok := doc.Find(`meta[property="og:title"]`).First().Attr("content"); ok {
		if t = strings.TrimSpace(t); t != "" {
			return t
		}
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

func resolve(base *url.URL, ref string) string {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}
