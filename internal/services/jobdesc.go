package services

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

var ErrEmptyJobDescription = errors.New("job description is empty")

var htmlTagPattern = regexp.MustCompile(`(?i)<\s*/?\s*(p|div|br|ul|ol|li|h[1-6]|span|strong|em|b|i|a|table|section|article)\b[^>]*>`)

// NormalizeJobDescription accepts either plain text or HTML copied from a job board. HTML is
// converted to markdown; plain text is only trimmed.
func NormalizeJobDescription(input string) (string, error) {
	text := strings.TrimSpace(input)
	if text == "" {
		return "", ErrEmptyJobDescription
	}
	if !htmlTagPattern.MatchString(text) {
		return text, nil
	}

	md, err := htmltomarkdown.ConvertString(text)
	if err != nil {
		return "", fmt.Errorf("failed to convert job description: %w", err)
	}
	md = strings.TrimSpace(md)
	if md == "" {
		return "", ErrEmptyJobDescription
	}
	return md, nil
}
