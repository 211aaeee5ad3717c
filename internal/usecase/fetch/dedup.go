package fetch

import (
	"newsxpress/internal/domain/entity"
)

// dedupeIndex answers "have we seen this article before" against both the
// recently stored articles and the current batch. Titles and URLs are both
// compared in normalized (trimmed, lower-cased) form because providers
// re-issue the same headline and link with different casing and padding.
type dedupeIndex struct {
	titles map[string]struct{}
	urls   map[string]struct{}
}

// newDedupeIndex builds the index from recently stored articles.
func newDedupeIndex(recent []*entity.Article) *dedupeIndex {
	index := &dedupeIndex{
		titles: make(map[string]struct{}, len(recent)),
		urls:   make(map[string]struct{}, len(recent)),
	}
	for _, article := range recent {
		index.add(article.Title, article.OriginalURL)
	}
	return index
}

// seen reports whether the raw article matches a known title or URL.
func (d *dedupeIndex) seen(article entity.RawArticle) bool {
	if _, ok := d.titles[entity.NormalizeKey(article.Title)]; ok {
		return true
	}
	_, ok := d.urls[entity.NormalizeKey(article.Link)]
	return ok
}

// add records an article so later batch members cannot duplicate it.
func (d *dedupeIndex) add(title, url string) {
	if key := entity.NormalizeKey(title); key != "" {
		d.titles[key] = struct{}{}
	}
	if key := entity.NormalizeKey(url); key != "" {
		d.urls[key] = struct{}{}
	}
}
