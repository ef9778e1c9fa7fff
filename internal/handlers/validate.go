package handlers

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"propostaflow/internal/document"
)

// Validation limits for template fields.
const (
	maxTemplateNameLen     = 200
	maxTemplateDescLen     = 1_000
	maxTemplateCategoryLen = 100
	maxPageCount           = 50
	maxElementsPerPage     = 500
)

// validateTemplate checks the length limits a template must respect on top
// of its own invariants, and returns the first problem found.
func validateTemplate(t *document.Template) string {
	if utf8.RuneCountInString(strings.TrimSpace(t.Name)) > maxTemplateNameLen {
		return fmt.Sprintf("Template name is too long (max %d characters).", maxTemplateNameLen)
	}
	if utf8.RuneCountInString(t.Description) > maxTemplateDescLen {
		return fmt.Sprintf("Description is too long (max %d characters).", maxTemplateDescLen)
	}
	if utf8.RuneCountInString(strings.TrimSpace(t.Category)) > maxTemplateCategoryLen {
		return fmt.Sprintf("Category is too long (max %d characters).", maxTemplateCategoryLen)
	}
	if len(t.Pages) > maxPageCount {
		return fmt.Sprintf("Too many pages (max %d).", maxPageCount)
	}
	for _, p := range t.Pages {
		if len(p.Elements) > maxElementsPerPage {
			return fmt.Sprintf("Page %q has too many elements (max %d).", p.Name, maxElementsPerPage)
		}
	}
	return ""
}
