package api

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// analysisRequest is the shared body of every analysis route. The target
// field (hashtag/username/keyword) is validated per route since the bounds
// differ from the shared ones.
type analysisRequest struct {
	Hashtag  string `json:"hashtag,omitempty" validate:"omitempty,min=1,max=100,hashtag_chars"`
	Username string `json:"username,omitempty" validate:"omitempty,min=1,max=100"`
	Keyword  string `json:"keyword,omitempty" validate:"omitempty,min=1,max=100"`

	PostsCount      int    `json:"posts_count" validate:"omitempty,min=1,max=50"`
	CommentsPerPost int    `json:"comments_per_post" validate:"omitempty,min=10,max=200"`
	Prompt          string `json:"ai_analysis_prompt" validate:"required,min=10,max=1000"`
	Model           string `json:"model" validate:"omitempty,max=100"`
	MaxQuoteLength  int    `json:"max_quote_length" validate:"omitempty,min=50,max=500"`
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// hashtagChars matches what the scraper accepts as a challenge name; a
// leading "#" is tolerated and stripped before collection.
var hashtagChars = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("hashtag_chars", func(fl validator.FieldLevel) bool {
		return hashtagChars.MatchString(strings.TrimPrefix(fl.Field().String(), "#"))
	})
	return v
}
