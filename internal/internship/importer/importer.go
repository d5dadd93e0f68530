// Package importer reads internship catalog rows from CSV for the seed command.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"internship-portal/backend/internal/internship/domain"
)

// ErrNoNameColumn is returned when the CSV header has no name column.
var ErrNoNameColumn = errors.New("importer: header has no name column")

// ReadCSV parses a CSV whose header names the internship columns (name, domains, skills,
// paid, duration, role, location, mode, prerequisites, stipend, other). Header names are
// matched case-insensitively, unknown columns are ignored and missing ones stay empty.
func ReadCSV(r io.Reader) ([]domain.Internship, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("importer: read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	if _, ok := cols["name"]; !ok {
		return nil, ErrNoNameColumn
	}

	var out []domain.Internship
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("importer: line %d: %w", line, err)
		}
		get := func(col string) string {
			i, ok := cols[col]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
		row := domain.Internship{
			Name:          get("name"),
			Domains:       get("domains"),
			Skills:        get("skills"),
			Paid:          get("paid"),
			Duration:      get("duration"),
			Role:          get("role"),
			Location:      get("location"),
			Mode:          get("mode"),
			Prerequisites: get("prerequisites"),
			Stipend:       get("stipend"),
			Other:         get("other"),
		}
		if row == (domain.Internship{}) {
			continue
		}
		out = append(out, row)
	}
}

// Samples returns the built-in catalog used when no CSV is given.
func Samples() []domain.Internship {
	return []domain.Internship{
		{
			Name: "DataForge Labs", Domains: "Data Science, Machine Learning", Skills: "Python, Pandas, SQL, TensorFlow",
			Paid: "Yes", Duration: "3 months", Role: "Data Science Intern", Location: "Chennai", Mode: "onsite",
			Prerequisites: "Strong Python skills and curiosity to explore data.", Stipend: "₹15000",
			Other: "Certificate, LOR, chance for full-time offer.",
		},
		{
			Name: "FinTrack", Domains: "Data Science, Analytics", Skills: "Python, SQL, Tableau",
			Paid: "Yes", Duration: "2-4 months", Role: "Data Analyst Intern", Location: "Remote", Mode: "remote",
			Prerequisites: "Basic statistics and good communication.", Stipend: "₹13000",
			Other: "Flexible timings, remote-first culture.",
		},
		{
			Name: "PixelCraft Studios", Domains: "Web Development", Skills: "HTML, CSS, JavaScript, React",
			Paid: "Yes", Duration: "3 months", Role: "Frontend Web Intern", Location: "Bengaluru", Mode: "onsite",
			Prerequisites: "Basic React knowledge and small portfolio.", Stipend: "₹10000",
			Other: "Work with designers and senior devs.",
		},
		{
			Name: "CloudNova", Domains: "Cloud Computing", Skills: "AWS, Docker, CI/CD",
			Paid: "No", Duration: "2 months", Role: "Cloud & DevOps Intern", Location: "Hyderabad", Mode: "remote",
			Prerequisites: "Linux basics and networking concepts.", Stipend: "0",
			Other: "Hands-on deployments on AWS.",
		},
		{
			Name: "SecureGate", Domains: "Cybersecurity", Skills: "Python, Kali Linux, Burp Suite",
			Paid: "Yes", Duration: "3 months", Role: "Cybersecurity Intern", Location: "Pune", Mode: "onsite",
			Prerequisites: "Basics of networks and web apps.", Stipend: "₹8000",
			Other: "Shadow senior security engineers on audits.",
		},
	}
}
