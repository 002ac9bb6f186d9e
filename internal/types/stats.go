package types

// RatingStats is derived from a single fetched page. It is not an aggregate
// over the whole dataset: Total is the number of submissions on the page.
type RatingStats struct {
	Counts  [MaxRating + 1]int `json:"-"`
	Total   int                `json:"total"`
	Ignored int                `json:"ignored,omitempty"`
}

type RatingCountDto struct {
	Rating int `json:"rating"`
	Count  int `json:"count"`
}

// ComputeRatingStats counts submissions per rating. Ratings outside 1..5 are
// not placed in any bucket and are reported through Ignored.
func ComputeRatingStats(submissions []Submission) RatingStats {
	var stats RatingStats
	for _, s := range submissions {
		if !ValidRating(s.Rating) {
			stats.Ignored++
			continue
		}
		stats.Counts[s.Rating]++
		stats.Total++
	}
	return stats
}

func (s RatingStats) Count(rating int) int {
	if !ValidRating(rating) {
		return 0
	}
	return s.Counts[rating]
}

func (s RatingStats) ByRating() map[int]int {
	out := make(map[int]int, MaxRating)
	for r := MinRating; r <= MaxRating; r++ {
		out[r] = s.Counts[r]
	}
	return out
}

func (s RatingStats) Dto() []RatingCountDto {
	ratings := Ratings()
	out := make([]RatingCountDto, 0, len(ratings))
	for _, r := range ratings {
		out = append(out, RatingCountDto{Rating: r, Count: s.Counts[r]})
	}
	return out
}
