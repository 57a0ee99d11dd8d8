package extract

import "github.com/hyperifyio/policyscan/internal/policy"

// Parser turns raw page bytes into a policy.Document. Implementations must be
// deterministic and free of side effects so callers can swap them in tests.
type Parser interface {
    Parse(rawURL string, input []byte) (policy.Document, error)
}

// HTMLParser parses with golang.org/x/net/html.
type HTMLParser struct{}

func (HTMLParser) Parse(rawURL string, input []byte) (policy.Document, error) {
    p, err := Parse(rawURL, input)
    if err != nil {
        return nil, err
    }
    return p, nil
}
