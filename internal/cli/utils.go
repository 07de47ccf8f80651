// Package cli provides output formatting for the Quizzy command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/BillStark001/quizzy/internal/models"
	"github.com/BillStark001/quizzy/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseFormat maps a flag value to an OutputFormat, defaulting to text.
func ParseFormat(s string) OutputFormat {
	if s == string(OutputJSON) {
		return OutputJSON
	}
	return OutputText
}

// WriteSearchResults writes search results to w in the given format.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format OutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(response)
	}
	fmt.Fprintf(w, "\nFound %d results in %dms (%d pages)\n\n",
		len(response.Results), response.QueryTime, response.TotalPages)
	for i, doc := range response.Results {
		fmt.Fprintf(w, "%2d. %s\n", i+1, docLabel(doc))
	}
	if len(response.ExpandedTerms) > 0 {
		fmt.Fprintf(w, "\nExpanded terms: %v\n", response.ExpandedTerms)
	}
	return nil
}

// WriteTagSuggestions writes autocomplete matches to w in the given format.
func WriteTagSuggestions(w io.Writer, suggestions *models.TagSuggestions, format OutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(suggestions)
	}
	fmt.Fprintf(w, "Question keywords: %v\n", suggestions.QuestionKeywords)
	fmt.Fprintf(w, "Question tags:     %v\n", suggestions.QuestionTags)
	fmt.Fprintf(w, "Paper keywords:    %v\n", suggestions.PaperKeywords)
	fmt.Fprintf(w, "Paper tags:        %v\n", suggestions.PaperTags)
	return nil
}

// docLabel picks a short display line for one result document.
func docLabel(doc map[string]interface{}) string {
	id, _ := doc["id"].(string)
	title, _ := doc["title"].(string)
	if title == "" {
		title, _ = doc["name"].(string)
	}
	if title == "" {
		title, _ = doc["content"].(string)
	}
	return fmt.Sprintf("%s  %s", id, utils.Truncate(title, 80))
}
