package domain

// Answer is the chosen response for a survey question.
type Answer string

const (
	AnswerNA  Answer = "N/A"
	AnswerNo  Answer = "No"
	AnswerYes Answer = "Yes"
)

// Valid reports whether a is one of the three accepted tokens.
func (a Answer) Valid() bool {
	switch a {
	case AnswerNA, AnswerNo, AnswerYes:
		return true
	}
	return false
}

// SurveyEntry pairs a canonical question with its answer and an optional
// free-text comment.
type SurveyEntry struct {
	Question string
	Answer   Answer
	Comment  string
}

// CanonicalQuestions is the fixed survey question list. Rendering order
// always follows this list regardless of how entries were supplied.
var CanonicalQuestions = []string{
	"1. Did weather cause any delays?",
	"2. Any instruction Contractor and Contractor's actions?",
	"3. Any general comments or unusual events?",
	"4. Any schedule delays occur?",
	"5. Materials on site?",
	"6. Contractor and Subcontractor Equipment onsite?",
	"7. Testing?",
	"8. Any visitors on site?",
	"9. Any accidents on site today?",
}
