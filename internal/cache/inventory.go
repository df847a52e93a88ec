package cache

import (
	"fmt"
	"time"
)

const (
	postKeyPrefix = "post:%s"
	slugKeyPrefix = "post:slug:%s"

	// FrontPageKey caches the unfiltered first page of published posts,
	// which is what the dashboard requests on every visit.
	FrontPageKey = "posts:front"
)

const (
	PostTTL      = 30 * time.Minute
	FrontPageTTL = 2 * time.Minute
)

func PostKey(postID string) string {
	return fmt.Sprintf(postKeyPrefix, postID)
}

func SlugKey(slug string) string {
	return fmt.Sprintf(slugKeyPrefix, slug)
}
