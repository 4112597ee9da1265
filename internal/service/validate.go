package service

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"notemap/internal/apperr"
)

// Validation limits for category and note fields.
const (
	maxNameLen        = 100
	maxDescriptionLen = 1_000
	maxNoteTitleLen   = 300
	maxNoteContentLen = 100_000
	maxSearchLen      = 100
)

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// validateName trims a category name and checks it.
func validateName(op, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperr.New(apperr.Validation, op, "name is required")
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return "", apperr.New(apperr.Validation, op, "name is too long (max %d characters)", maxNameLen)
	}
	return name, nil
}

func validateDescription(op, desc string) (string, error) {
	desc = strings.TrimSpace(desc)
	if utf8.RuneCountInString(desc) > maxDescriptionLen {
		return "", apperr.New(apperr.Validation, op, "description is too long (max %d characters)", maxDescriptionLen)
	}
	return desc, nil
}

// validateColor accepts nil, the empty string (no explicit color), or a
// #rrggbb hex triplet.
func validateColor(op string, color *string) (*string, error) {
	if color == nil || *color == "" {
		return nil, nil
	}
	if !hexColor.MatchString(*color) {
		return nil, apperr.New(apperr.Validation, op, "color must be a #rrggbb hex value")
	}
	v := strings.ToLower(*color)
	return &v, nil
}

func validateNote(op, title, content string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", apperr.New(apperr.Validation, op, "title is required")
	}
	if utf8.RuneCountInString(title) > maxNoteTitleLen {
		return "", apperr.New(apperr.Validation, op, "title is too long (max %d characters)", maxNoteTitleLen)
	}
	if utf8.RuneCountInString(content) > maxNoteContentLen {
		return "", apperr.New(apperr.Validation, op, "content is too long (max %d characters)", maxNoteContentLen)
	}
	return title, nil
}
