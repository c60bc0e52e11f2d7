// Package composer turns a classification into the bot's reply.
package composer

import (
	"math"
	"math/rand/v2"
	"sync"

	"mindtrack/mindtrack/services/classifier"
)

type Reply struct {
	Text            string   `json:"text"`
	Recommendations []string `json:"recommendations"`
}

// CategoryOf maps a predicted class onto a known category, defaulting to Unknown.
func CategoryOf(predictedClass string) Category {
	c := Category(predictedClass)
	if c.valid() {
		return c
	}
	return Unknown
}

// Severity discretizes a classification onto 0..10. Without a confidence the
// midpoint is used. For "normal" a confident verdict means low severity.
func Severity(res classifier.Result) int {
	cat := CategoryOf(res.PredictedClass)
	if res.Confidence == nil || cat == Unknown {
		return 5
	}
	conf := math.Max(0, math.Min(1, *res.Confidence))
	if cat == Normal {
		return int(math.Round((1 - conf) * 4))
	}
	return int(math.Round(conf * 10))
}

func fallbackFor(cat Catalog, severity int) []string {
	for _, band := range cat.Severity {
		if severity <= band.MaxScore {
			return band.Recommendations
		}
	}
	if n := len(cat.Severity); n > 0 {
		return cat.Severity[n-1].Recommendations
	}
	return classifier.FallbackRecommendations
}

// Compose picks a template for the classification's category using rng and
// attaches its recommendations, or the severity fallback when there are none.
// The returned recommendations are never empty.
func Compose(res classifier.Result, cat Catalog, rng *rand.Rand) Reply {
	templates := cat.Templates[CategoryOf(res.PredictedClass)]
	if len(templates) == 0 {
		templates = cat.Templates[Unknown]
	}
	text := ""
	if len(templates) > 0 {
		text = templates[rng.IntN(len(templates))]
	}

	recs := res.Recommendations
	if len(recs) == 0 {
		recs = fallbackFor(cat, Severity(res))
	}
	return Reply{Text: text, Recommendations: append([]string(nil), recs...)}
}

// Composer is safe for concurrent use.
type Composer struct {
	catalog Catalog

	mu  sync.Mutex
	rng *rand.Rand
}

// New returns a Composer. A nil rng seeds one from the runtime.
func New(cat Catalog, rng *rand.Rand) *Composer {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Composer{catalog: cat, rng: rng}
}

func (c *Composer) Compose(res classifier.Result) Reply {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Compose(res, c.catalog, c.rng)
}

func (c *Composer) Catalog() Catalog {
	return c.catalog
}
