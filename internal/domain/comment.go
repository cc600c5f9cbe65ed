package domain

const (
	MinRating = 1
	MaxRating = 5
)

// Comment is a rated review of a finished event.
type Comment struct {
	ID           string  `json:"id"`
	EventID      string  `json:"eventoId"`
	UserID       string  `json:"userId"`
	UserName     string  `json:"userName"`
	UserPhotoURL *string `json:"userPhotoUrl,omitempty"`
	Text         string  `json:"texto"`
	Rating       int     `json:"calificacion"`
	Date         int64   `json:"fecha"`
	Edited       bool    `json:"editado"`
}

// RatingSummary computes the arithmetic mean and count of all ratings. An
// empty set yields zero for both.
func RatingSummary(comments []Comment) (average float64, count int) {
	if len(comments) == 0 {
		return 0, 0
	}
	sum := 0
	for _, c := range comments {
		sum += c.Rating
	}
	return float64(sum) / float64(len(comments)), len(comments)
}
