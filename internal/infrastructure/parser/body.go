package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrEmptyBody is returned when a content body has no visible text.
var ErrEmptyBody = errors.New("content body has no visible text")

// ExtractText parses an HTML body and returns its visible text with
// whitespace collapsed. Script, style and template elements are ignored.
func ExtractText(body string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse body: %w", err)
	}

	doc.Find("script, style, template, noscript").Remove()

	return strings.Join(strings.Fields(doc.Text()), " "), nil
}

// ValidateBody rejects bodies that would render as an empty page.
func ValidateBody(body string) error {
	text, err := ExtractText(body)
	if err != nil {
		return err
	}
	if text == "" {
		return ErrEmptyBody
	}
	return nil
}
