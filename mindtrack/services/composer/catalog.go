package composer

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

type Category string

const (
	Stress     Category = "stress"
	Anxiety    Category = "anxiety"
	Depression Category = "depression"
	Normal     Category = "normal"
	Unknown    Category = "unknown"
)

var Categories = []Category{Stress, Anxiety, Depression, Normal, Unknown}

// SeverityBand applies to severities up to and including MaxScore.
type SeverityBand struct {
	MaxScore        int      `yaml:"max_score"`
	Recommendations []string `yaml:"recommendations"`
}

// Catalog holds the reply templates per category and the fallback
// recommendation table used when the classifier offers none.
type Catalog struct {
	Templates map[Category][]string `yaml:"templates"`
	Severity  []SeverityBand        `yaml:"severity"`
}

const closing = "Here is an analysis of your current condition and recommendations that might help."

func DefaultCatalog() Catalog {
	return Catalog{
		Templates: map[Category][]string{
			Stress: {
				"Thank you for sharing your story. " + closing,
				"I understand you are experiencing stress. Thank you for sharing your story. " + closing,
				"Thank you for trusting me with your feelings. " + closing,
			},
			Anxiety: {
				"Thank you for sharing your story. " + closing,
				"I understand the anxious feelings you are experiencing. Thank you for sharing your story. " + closing,
				"Thank you for trusting me. " + closing,
			},
			Depression: {
				"Thank you for sharing your story. " + closing,
				"I understand how heavy the feelings you are experiencing are. Thank you for sharing your story. " + closing,
				"Thank you for trusting me. " + closing,
			},
			Normal: {
				"Thank you for sharing your story. " + closing,
				"Thank you for sharing. " + closing,
				"It is good to hear you are doing relatively well. " + closing,
			},
			Unknown: {
				"Thank you for sharing your story. " + closing,
				"Thank you for sharing. " + closing,
				"Thank you for sharing. I am here to help you.",
			},
		},
		Severity: []SeverityBand{
			{MaxScore: 2, Recommendations: []string{"Morning Run", "1.5 L of water daily", "Cooking mealpreps for 3 days"}},
			{MaxScore: 4, Recommendations: []string{"Take a 10 minute walk outside", "Try box breathing for 4 minutes", "Write down three things that went well today"}},
			{MaxScore: 7, Recommendations: []string{"Take a short break from what you are doing", "Practice slow breathing for 5 minutes", "Talk to someone you trust about how you feel"}},
			{MaxScore: 10, Recommendations: []string{"Pause and rest somewhere quiet", "Reach out to a close friend or family member today", "Consider talking to a mental health professional"}},
		},
	}
}

// LoadCatalog reads a YAML catalog from path. Categories or severity bands
// the file leaves out keep their defaults.
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read catalog: %w", err)
	}
	var loaded Catalog
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return Catalog{}, fmt.Errorf("parse catalog: %w", err)
	}

	cat := DefaultCatalog()
	for c, templates := range loaded.Templates {
		if !c.valid() {
			return Catalog{}, fmt.Errorf("unknown category %q", c)
		}
		if len(templates) > 0 {
			cat.Templates[c] = templates
		}
	}
	if len(loaded.Severity) > 0 {
		for _, band := range loaded.Severity {
			if len(band.Recommendations) == 0 {
				return Catalog{}, fmt.Errorf("severity band %d has no recommendations", band.MaxScore)
			}
		}
		cat.Severity = loaded.Severity
	}
	sort.Slice(cat.Severity, func(i, j int) bool { return cat.Severity[i].MaxScore < cat.Severity[j].MaxScore })
	return cat, nil
}

func (c Category) valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}
