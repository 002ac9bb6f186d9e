package types

const (
	MinRating       = 1
	MaxRating       = 5
	MaxReviewLength = 5000
)

type Submission struct {
	ID                 string    `json:"id"`
	Rating             int       `json:"rating"`
	Review             string    `json:"review"`
	Timestamp          Timestamp `json:"timestamp"`
	AIResponse         string    `json:"ai_response,omitempty"`
	AISummary          string    `json:"ai_summary,omitempty"`
	RecommendedActions string    `json:"recommended_actions,omitempty"`
	Status             string    `json:"status,omitempty"`
}

type SubmissionCreateDto struct {
	Rating int    `json:"rating" validate:"required,min=1,max=5"`
	Review string `json:"review" validate:"required,max=5000"`
}

type SubmissionPage struct {
	Submissions []Submission `json:"submissions"`
	Total       int          `json:"total"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type HealthStatus struct {
	Status string `json:"status"`
}

func ValidRating(rating int) bool {
	return rating >= MinRating && rating <= MaxRating
}

// Ratings lists the rating values in display order, best first.
func Ratings() []int {
	return []int{5, 4, 3, 2, 1}
}
