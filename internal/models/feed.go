package models

import (
	"time"
)

// ContentKind tags the three content shapes merged into the feed.
type ContentKind string

// Content kinds, in merge tie-break order: when two items share a createdAt
// timestamp, snippets sort before docs, docs before bugs.
const (
	KindSnippet ContentKind = "snippet"
	KindDoc     ContentKind = "doc"
	KindBug     ContentKind = "bug"
)

// FeedItem is the tagged variant the feed merges and sorts. Exactly one of
// Snippet, Doc, Bug is non-nil, matching Kind.
type FeedItem struct {
	Kind    ContentKind `json:"kind"`
	Snippet *Snippet    `json:"snippet,omitempty"`
	Doc     *Doc        `json:"doc,omitempty"`
	Bug     *Bug        `json:"bug,omitempty"`
}

// CreatedAt returns the creation timestamp of the wrapped item.
func (f FeedItem) CreatedAt() time.Time {
	switch f.Kind {
	case KindSnippet:
		return f.Snippet.CreatedAt
	case KindDoc:
		return f.Doc.CreatedAt
	case KindBug:
		return f.Bug.CreatedAt
	}
	return time.Time{}
}

// ItemID returns the wrapped item's primary key.
func (f FeedItem) ItemID() uint {
	switch f.Kind {
	case KindSnippet:
		return f.Snippet.ID
	case KindDoc:
		return f.Doc.ID
	case KindBug:
		return f.Bug.ID
	}
	return 0
}

// AuthorID returns the wrapped item's author.
func (f FeedItem) AuthorID() uint {
	switch f.Kind {
	case KindSnippet:
		return f.Snippet.AuthorID
	case KindDoc:
		return f.Doc.AuthorID
	case KindBug:
		return f.Bug.AuthorID
	}
	return 0
}

// FeedPage is the paginated result of a feed request.
type FeedPage struct {
	Items   []FeedItem `json:"items"`
	Total   int        `json:"total"`
	HasMore bool       `json:"has_more"`
	// Fallback is true when the personalized feed was empty and the public
	// feed was served instead. Fallback items carry no personalized
	// liked/bookmarked flags.
	Fallback bool `json:"fallback"`
}

// ValidContentKind reports whether k names one of the three content shapes.
func ValidContentKind(k string) bool {
	switch ContentKind(k) {
	case KindSnippet, KindDoc, KindBug:
		return true
	}
	return false
}
