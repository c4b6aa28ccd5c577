package lemmy

// Post is the subset of a Lemmy post the bot works with.
type Post struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	URL   string `json:"url"`
	Body  string `json:"body"`
	AP    string `json:"ap_id"`
	Nsfw  bool   `json:"nsfw"`
	Local bool   `json:"local"`
}

type loginRequest struct {
	UsernameOrEmail string `json:"username_or_email"`
	Password        string `json:"password"`
}

type loginResponse struct {
	JWT string `json:"jwt"`
}

type communityResponse struct {
	CommunityView struct {
		Community struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
		} `json:"community"`
	} `json:"community_view"`
}

type createPostRequest struct {
	CommunityID int64  `json:"community_id"`
	Name        string `json:"name"`
	Body        string `json:"body,omitempty"`
	URL         string `json:"url,omitempty"`
}

type postResponse struct {
	PostView struct {
		Post Post `json:"post"`
	} `json:"post_view"`
}

type postListResponse struct {
	Posts []struct {
		Post Post `json:"post"`
	} `json:"posts"`
}
