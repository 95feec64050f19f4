// Package destination models where a reconstructed sketch goes: a
// standalone document object, a newly created feature body, or an
// existing body chosen by name. It is purely a target-selection
// decision; geometry never flows through it.
package destination

import "fmt"

// Kind enumerates the mutually exclusive sketch destinations.
type Kind int

const (
	Standalone   Kind = iota // plain document sketch
	NewBody                  // create a body, attach the sketch to it
	ExistingBody             // attach to a named existing body
)

func (k Kind) String() string {
	switch k {
	case Standalone:
		return "standalone"
	case NewBody:
		return "new body"
	case ExistingBody:
		return "existing body"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Choice is a resolved destination. Body is set only for ExistingBody.
type Choice struct {
	Kind Kind
	Body string
}

// Chooser presents the blocking destination choice to the user.
type Chooser interface {
	// Choose presents the available bodies and returns the selection.
	// ok is false when the user cancelled, which is a clean
	// cancellation rather than an error.
	Choose(bodies []string) (choice Choice, ok bool, err error)
}

// NotFoundError reports that a chosen body does not exist in the
// document.
type NotFoundError struct {
	Body string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("destination: body %q not found", e.Body)
}

// fixedChooser always returns the same choice without prompting.
type fixedChooser struct {
	choice Choice
}

func (f fixedChooser) Choose([]string) (Choice, bool, error) {
	return f.choice, true, nil
}

// Fixed returns a Chooser that answers c without prompting. Used by
// scripted invocations and tests.
func Fixed(c Choice) Chooser {
	return fixedChooser{choice: c}
}

// cancelChooser always declines.
type cancelChooser struct{}

func (cancelChooser) Choose([]string) (Choice, bool, error) {
	return Choice{}, false, nil
}

// Cancel returns a Chooser that always declines the choice.
func Cancel() Chooser {
	return cancelChooser{}
}
