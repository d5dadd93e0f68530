package domain

import "strings"

// Paging limits for Search.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Internship is one catalog entry. Text columns are free-form as imported from the CSV.
type Internship struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Domains       string `json:"domains"`
	Skills        string `json:"skills"`
	Paid          string `json:"paid"`
	Duration      string `json:"duration"`
	Role          string `json:"role"`
	Location      string `json:"location"`
	Mode          string `json:"mode"`
	Prerequisites string `json:"prerequisites"`
	Stipend       string `json:"stipend"`
	Other         string `json:"other"`
}

// Filter selects internships. Domains and Skills each match if any term is a
// case-insensitive substring (OR); Location, Mode and Paid must all match (AND).
type Filter struct {
	Domains  []string
	Skills   []string
	Location string
	Mode     string
	Paid     string
	Page     int
	PageSize int
}

// Normalize trims terms, drops empty ones and clamps paging to 1..MaxPageSize.
func (f Filter) Normalize() Filter {
	f.Domains = cleanTerms(f.Domains)
	f.Skills = cleanTerms(f.Skills)
	f.Location = strings.TrimSpace(f.Location)
	f.Mode = strings.TrimSpace(f.Mode)
	f.Paid = strings.TrimSpace(f.Paid)
	if f.Page < 1 {
		f.Page = 1
	}
	switch {
	case f.PageSize < 1:
		f.PageSize = DefaultPageSize
	case f.PageSize > MaxPageSize:
		f.PageSize = MaxPageSize
	}
	return f
}

// Offset returns the row offset of the page. Call on a normalized filter.
func (f Filter) Offset() int {
	return (f.Page - 1) * f.PageSize
}

func cleanTerms(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Page is one page of search results with the total number of matches.
type Page struct {
	Total int
	Items []Internship
}
