package policy

import (
    "errors"
    "fmt"
)

// MinTextChars is the shortest normalized text ExtractPolicyText returns.
const MinTextChars = 500

// ErrNoContentFound means no element, fallbacks included, could be read.
var ErrNoContentFound = errors.New("no content found to extract")

// ErrInsufficientContent means the normalized text is below MinTextChars.
var ErrInsufficientContent = errors.New("insufficient policy content")

// InsufficientContentError carries the measured length of text that was
// too short. It matches ErrInsufficientContent with errors.Is.
type InsufficientContentError struct {
    Length int
}

func (e *InsufficientContentError) Error() string {
    return fmt.Sprintf("insufficient policy content found (%d characters, less than %d)", e.Length, MinTextChars)
}

func (e *InsufficientContentError) Unwrap() error { return ErrInsufficientContent }

// DetectPolicy reports whether doc is a policy page. It never fails.
func DetectPolicy(doc Document) bool {
    return IsPolicyPage(doc)
}

// ExtractPolicyText returns the normalized text of the best policy element,
// or of the main content area when no candidate scores.
func ExtractPolicyText(doc Document) (string, error) {
    el, ok := LocateBestElement(doc)
    if !ok {
        el = MainContent(doc)
    }
    if el == nil {
        return "", ErrNoContentFound
    }
    text := Normalize(el.Text())
    if n := textLen(text); n < MinTextChars {
        return "", &InsufficientContentError{Length: n}
    }
    return text, nil
}
