package program

import (
	"fmt"
	"strings"
	"time"
)

var (
	sampleUniversities = []string{
		"University of Toronto", "McGill University", "University of British Columbia",
		"University of Waterloo", "McMaster University", "University of Alberta",
		"Simon Fraser University", "University of Calgary", "Queen's University",
		"Western University", "York University", "Dalhousie University",
	}
	sampleFields = []string{
		"Computer Science", "Business Administration", "Engineering",
		"Data Science", "Artificial Intelligence", "Software Engineering",
		"Information Technology", "Digital Marketing", "Finance",
		"Accounting", "Mechanical Engineering", "Civil Engineering",
	}
	sampleDegrees   = []string{"Bachelor's", "Master's", "Diploma", "Certificate", "PhD"}
	sampleCountries = []string{"Canada", "USA", "UK", "Australia"}
	sampleIntakes   = []string{"Fall 2025", "Winter 2026", "Spring 2025", "Summer 2025"}
)

// Generate builds count sample programs. Attributes cycle through fixed
// lists, so the same index always yields the same program apart from its id
// and scraped_at.
func Generate(count int, now time.Time, newID func() string) []Program {
	scrapedAt := now.UTC().Format(time.RFC3339)
	out := make([]Program, 0, max(count, 0))
	for i := range max(count, 0) {
		field := sampleFields[i%len(sampleFields)]
		degree := sampleDegrees[i%len(sampleDegrees)]
		intake := sampleIntakes[i%len(sampleIntakes)]

		duration := "1 year"
		if degree == "Bachelor's" || degree == "Master's" {
			duration = fmt.Sprintf("%d years", 2+i%3)
		}
		english := "IELTS 7.0 or TOEFL 100"
		if i%3 == 0 {
			english = "IELTS 6.5 or TOEFL 90"
		}

		out = append(out, Program{
			ID:                  newID(),
			Name:                degree + " in " + field,
			University:          sampleUniversities[i%len(sampleUniversities)],
			DegreeType:          degree,
			Duration:            duration,
			TuitionFee:          fmt.Sprintf("$%d", 15000+(i*1000)%30000),
			ApplicationFee:      fmt.Sprintf("$%d", 100+(i*10)%200),
			StartDate:           intake,
			Deadline:            fmt.Sprintf("202%d-%02d-15", 5+i%2, i%12+1),
			Country:             sampleCountries[i%len(sampleCountries)],
			Requirements:        fmt.Sprintf("GPA: %.1f, Bachelor's degree for graduate programs", 3.0+float64(i%10)*0.1),
			EnglishTestRequired: english,
			Description: "This program offers comprehensive training in " + strings.ToLower(field) +
				" with hands-on experience and industry connections. Students will develop" +
				" critical skills needed for success in the modern workforce.",
			URL:       fmt.Sprintf("https://applyboard.com/programs/%s-%d", strings.ReplaceAll(strings.ToLower(field), " ", "-"), i),
			Intake:    intake,
			ScrapedAt: scrapedAt,
		})
	}
	return out
}
