package social

import "time"

// Profile holds the subset of account metadata the dashboard displays.
type Profile struct {
	Handle      string `json:"handle"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
}

// Post is a single post with its engagement counters, newest-first as
// returned by the upstream search endpoint.
type Post struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	Replies   int       `json:"replies"`
	Retweets  int       `json:"retweets"`
	Favorites int       `json:"favorites"`
	Bookmarks int       `json:"bookmarks"`
	Views     int       `json:"views"`
}

// userResponse mirrors the wire shape of the profile endpoint.
type userResponse struct {
	IDStr           string `json:"id_str"`
	Name            string `json:"name"`
	ScreenName      string `json:"screen_name"`
	Description     string `json:"description"`
	ProfileImageURL string `json:"profile_image_url_https"`
}

// tweetResponse mirrors the wire shape of a single tweet in the search response.
type tweetResponse struct {
	IDStr          string `json:"id_str"`
	FullText       string `json:"full_text"`
	TweetCreatedAt string `json:"tweet_created_at"`
	ReplyCount     int    `json:"reply_count"`
	RetweetCount   int    `json:"retweet_count"`
	FavoriteCount  int    `json:"favorite_count"`
	BookmarkCount  int    `json:"bookmark_count"`
	ViewsCount     int    `json:"views_count"`
}

// searchResponse mirrors the search endpoint which returns either a tweet
// page or an error payload with status and message fields.
type searchResponse struct {
	NextCursor string          `json:"next_cursor"`
	Tweets     []tweetResponse `json:"tweets"`
	Status     string          `json:"status"`
	Message    string          `json:"message"`
}

// createdAtLayout is the legacy timestamp format used by the upstream API.
const createdAtLayout = "Mon Jan 02 15:04:05 -0700 2006"

func (t *tweetResponse) toPost() Post {
	// Unparseable timestamps are kept as zero rather than failing the fetch
	createdAt, _ := time.Parse(createdAtLayout, t.TweetCreatedAt)

	return Post{
		ID:        t.IDStr,
		Text:      t.FullText,
		CreatedAt: createdAt,
		Replies:   t.ReplyCount,
		Retweets:  t.RetweetCount,
		Favorites: t.FavoriteCount,
		Bookmarks: t.BookmarkCount,
		Views:     t.ViewsCount,
	}
}
