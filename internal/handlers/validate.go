package handlers

import (
	"strings"
	"unicode/utf8"

	"listora/internal/models"
)

// Validation limits for listing and template fields.
const (
	maxTitleLen        = 300
	maxLocationLen     = 200
	maxCategoryLen     = 100
	maxTemplateNameLen = 200
	maxStepTitleLen    = 200
	maxSteps           = 20
	maxFieldsPerStep   = 50
	maxFieldNameLen    = 100
	maxFieldLabelLen   = 200
)

// validateListing checks listing inputs and returns the first error found.
func validateListing(title, category, location string, price float64) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return "Title is required."
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return "Title is too long (max 300 characters)."
	}
	if strings.TrimSpace(category) == "" {
		return "Category is required."
	}
	if utf8.RuneCountInString(category) > maxCategoryLen {
		return "Category is too long (max 100 characters)."
	}
	if utf8.RuneCountInString(location) > maxLocationLen {
		return "Location is too long (max 200 characters)."
	}
	if price < 0 {
		return "Price must not be negative."
	}
	return ""
}

// validateTemplate checks template inputs and returns the first error found.
func validateTemplate(name, category string, steps []models.TemplateStep) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Template name is required."
	}
	if utf8.RuneCountInString(name) > maxTemplateNameLen {
		return "Template name is too long (max 200 characters)."
	}
	if strings.TrimSpace(category) == "" {
		return "Category is required."
	}
	if len(steps) > maxSteps {
		return "Too many steps (max 20)."
	}
	for _, step := range steps {
		if utf8.RuneCountInString(step.Title) > maxStepTitleLen {
			return "Step title is too long (max 200 characters)."
		}
		if len(step.Fields) > maxFieldsPerStep {
			return "Too many fields in one step (max 50)."
		}
		for _, f := range step.Fields {
			if strings.TrimSpace(f.FieldName) == "" {
				return "Every field needs a field name."
			}
			if utf8.RuneCountInString(f.FieldName) > maxFieldNameLen {
				return "Field name is too long (max 100 characters)."
			}
			if utf8.RuneCountInString(f.FieldLabel) > maxFieldLabelLen {
				return "Field label is too long (max 200 characters)."
			}
		}
	}
	return ""
}
