// Package convert translates internal pipeline types to REST API types.
package convert

import (
	"fmt"

	"github.com/sleighlabs/nicelist/internal/checker"
	"github.com/sleighlabs/nicelist/internal/rest/types"
	"github.com/sleighlabs/nicelist/internal/social"
	"github.com/sleighlabs/nicelist/internal/store"
)

// Post converts a fetched post, adding the platform permalink.
func Post(handle string, post *social.Post) types.PostResponse {
	return types.PostResponse{
		ID:        post.ID,
		Text:      post.Text,
		CreatedAt: post.CreatedAt,
		Replies:   post.Replies,
		Retweets:  post.Retweets,
		Favorites: post.Favorites,
		Bookmarks: post.Bookmarks,
		Views:     post.Views,
		URL:       fmt.Sprintf("https://x.com/%s/status/%s", handle, post.ID),
	}
}

// Check converts a pipeline result to the dashboard payload. Both referenced
// post ids are resolved by the pipeline before caching, so the lookups here
// cannot miss.
func Check(result *checker.Result) types.CheckResponse {
	handle := result.Profile.Handle

	posts := make([]types.PostResponse, 0, len(result.Posts))
	for i := range result.Posts {
		posts = append(posts, Post(handle, &result.Posts[i]))
	}

	return types.CheckResponse{
		Handle:         handle,
		DisplayName:    result.Profile.DisplayName,
		AvatarURL:      result.Profile.AvatarURL,
		Posts:          posts,
		NicestPost:     Post(handle, result.PostByID(result.Classification.MostPositivePostID)),
		NaughtiestPost: Post(handle, result.PostByID(result.Classification.MostNegativePostID)),
		Rating:         result.Classification.Rating,
		Score:          result.Classification.Score,
		CurrentStatus:  result.CurrentStatus,
		CurrentScore:   result.CurrentScore,
	}
}

// Status converts a stored record to its response shape.
func Status(record *store.Record) types.StatusResponse {
	return types.StatusResponse{
		Handle: record.Handle,
		Status: record.Status,
		Score:  record.Score,
	}
}
