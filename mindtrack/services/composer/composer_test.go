package composer

import (
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"mindtrack/mindtrack/services/classifier"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func conf(v float64) *float64 { return &v }

func seeded() *rand.Rand { return rand.New(rand.NewPCG(1, 2)) }

func TestComposePicksCategoryTemplate(t *testing.T) {
	cat := DefaultCatalog()
	rng := seeded()
	for _, class := range []string{"stress", "anxiety", "depression", "normal", "unknown", "something-else"} {
		res := classifier.Result{Succeeded: true, PredictedClass: class, Confidence: conf(0.7), Recommendations: []string{"Breathe"}}
		for i := 0; i < 20; i++ {
			reply := Compose(res, cat, rng)
			assert.Contains(t, cat.Templates[CategoryOf(class)], reply.Text)
			assert.Equal(t, []string{"Breathe"}, reply.Recommendations)
		}
	}
}

func TestComposeIsDeterministicForSeed(t *testing.T) {
	cat := DefaultCatalog()
	res := classifier.Result{PredictedClass: "stress"}
	a, b := seeded(), seeded()
	for i := 0; i < 10; i++ {
		assert.Equal(t, Compose(res, cat, a), Compose(res, cat, b))
	}
}

func TestComposeFallsBackBySeverity(t *testing.T) {
	cat := DefaultCatalog()
	tests := []struct {
		name string
		res  classifier.Result
		want []string
	}{
		{"confident normal", classifier.Result{PredictedClass: "normal", Confidence: conf(0.95)}, cat.Severity[0].Recommendations},
		{"mild stress", classifier.Result{PredictedClass: "stress", Confidence: conf(0.4)}, cat.Severity[1].Recommendations},
		{"unknown", classifier.Result{PredictedClass: "unknown"}, cat.Severity[2].Recommendations},
		{"severe depression", classifier.Result{PredictedClass: "depression", Confidence: conf(0.92)}, cat.Severity[3].Recommendations},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			reply := Compose(tc.res, cat, seeded())
			assert.Equal(t, tc.want, reply.Recommendations)
		})
	}
}

func TestComposeNeverEmpty(t *testing.T) {
	reply := Compose(classifier.Result{PredictedClass: "stress"}, Catalog{}, seeded())
	assert.Empty(t, reply.Text)
	assert.Equal(t, classifier.FallbackRecommendations, reply.Recommendations)
}

func TestSeverity(t *testing.T) {
	assert.Equal(t, 5, Severity(classifier.Result{PredictedClass: "stress"}))
	assert.Equal(t, 9, Severity(classifier.Result{PredictedClass: "stress", Confidence: conf(0.9)}))
	assert.Equal(t, 0, Severity(classifier.Result{PredictedClass: "normal", Confidence: conf(1)}))
	assert.Equal(t, 10, Severity(classifier.Result{PredictedClass: "anxiety", Confidence: conf(3)}))
}

func TestLoadCatalogMergesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
templates:
  stress:
    - "Tarik napas dulu, ya."
severity:
  - max_score: 10
    recommendations: ["Istirahat"]
  - max_score: 3
    recommendations: ["Jalan santai"]
`), 0o644))

	cat, err := LoadCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Tarik napas dulu, ya."}, cat.Templates[Stress])
	assert.Equal(t, DefaultCatalog().Templates[Anxiety], cat.Templates[Anxiety])
	require.Len(t, cat.Severity, 2)
	assert.Equal(t, 3, cat.Severity[0].MaxScore)

	reply := New(cat, seeded()).Compose(classifier.Result{PredictedClass: "stress", Confidence: conf(0.2)})
	assert.Equal(t, "Tarik napas dulu, ya.", reply.Text)
	assert.Equal(t, []string{"Jalan santai"}, reply.Recommendations)
}

func TestLoadCatalogRejectsUnknownCategory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.yaml")
	require.NoError(t, os.WriteFile(path, []byte("templates:\n  grumpy: [\"hi\"]\n"), 0o644))
	_, err := LoadCatalog(path)
	assert.Error(t, err)
}
