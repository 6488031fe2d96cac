package chat

// Texts shown when the server gives nothing usable.
const (
	NoAnswerText     = "No answer received."
	GenericErrorText = "An unexpected error occurred."
)

// Outcome is the result of one exchange: either an Answer or a Failure.
type Outcome interface {
	// Text is the final text of the pending message
	Text() string
	outcome()
}

// Answer is a successful reply
type Answer struct {
	Content string
}

// Text returns the answer, or NoAnswerText when the server sent none
func (a Answer) Text() string {
	if a.Content == "" {
		return NoAnswerText
	}
	return a.Content
}

func (Answer) outcome() {}

// Failure is a failed exchange. Message is the server-supplied error text,
// Err carries the diagnostic cause and is never shown verbatim.
type Failure struct {
	Message string
	Err     error
}

// Text returns the server message, or GenericErrorText when absent
func (f Failure) Text() string {
	if f.Message == "" {
		return GenericErrorText
	}
	return f.Message
}

func (Failure) outcome() {}

// IsFailure reports whether o is a Failure
func IsFailure(o Outcome) bool {
	_, ok := o.(Failure)
	return ok
}
