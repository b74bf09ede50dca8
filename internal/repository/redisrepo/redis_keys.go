package redisrepo

import "fmt"

const (
	POST_KEY         = "post:%s"     // <postID>
	POSTS_PAGE_KEY   = "posts:%d:%d" // <limit>:<offset>
	POSTS_PAGE_MATCH = "posts:*"
	IMAGE_LOCK_KEY   = "post-image-lock:%s" // <postID>
)

func PostKey(postID string) string {
	return fmt.Sprintf(POST_KEY, postID)
}

func PostsPageKey(limit int, offset int) string {
	return fmt.Sprintf(POSTS_PAGE_KEY, limit, offset)
}

func ImageLockKey(postID string) string {
	return fmt.Sprintf(IMAGE_LOCK_KEY, postID)
}
