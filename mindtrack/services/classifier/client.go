// Package classifier talks to the external stress classification service.
package classifier

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	httputils "mindtrack/mindtrack/utils/http"
	"mindtrack/mindtrack/utils/logging"
	"mindtrack/mindtrack/utils/metrics"

	"go.uber.org/zap"
)

// UnknownClass is reported whenever the service could not be consulted.
const UnknownClass = "unknown"

// FallbackRecommendations are generic coping suggestions served in degraded mode.
var FallbackRecommendations = []string{
	"Cobalah untuk beristirahat sejenak",
	"Lakukan aktivitas yang Anda sukai",
	"Berbicara dengan orang terdekat jika diperlukan",
}

// Result is the verdict for one piece of text. Succeeded is false in degraded
// mode, in which case FailureReason says why and the other fields hold fallbacks.
type Result struct {
	Succeeded       bool     `json:"succeeded"`
	PredictedClass  string   `json:"predicted_class"`
	Confidence      *float64 `json:"confidence"`
	Recommendations []string `json:"recommendations"`
	FailureReason   string   `json:"-"`
}

type predictRequest struct {
	Text string `json:"text"`
}

type predictResponse struct {
	Prediction      *string  `json:"prediction"`
	Confidence      *float64 `json:"confidence"`
	Recommendations []string `json:"recommendations"`
}

type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Degraded builds the fallback result for the given reason.
func Degraded(reason string) Result {
	return Result{
		Succeeded:       false,
		PredictedClass:  UnknownClass,
		Recommendations: append([]string(nil), FallbackRecommendations...),
		FailureReason:   reason,
	}
}

// Predict classifies text. It never fails: any problem with the service
// yields a degraded Result instead.
func (c *Client) Predict(ctx context.Context, text string) Result {
	defer logging.LogDuration(ctx, "classifier_predict")()
	start := time.Now()

	var resp predictResponse
	err := httputils.PostJSON(ctx, c.client, c.baseURL+"/predict", predictRequest{Text: text}, &resp)
	metrics.ClassifierDuration.Observe(time.Since(start).Seconds())

	if err == nil && (resp.Prediction == nil || *resp.Prediction == "") {
		err = errMissingPrediction
	}
	if err != nil {
		reason := failureReason(err)
		metrics.Classifications.WithLabelValues("degraded").Inc()
		logging.AppLogger.Warn("classification degraded",
			zap.String("reason", reason),
			zap.Error(err),
		)
		return Degraded(reason)
	}

	metrics.Classifications.WithLabelValues("success").Inc()
	recs := resp.Recommendations
	if recs == nil {
		recs = []string{}
	}
	return Result{
		Succeeded:       true,
		PredictedClass:  *resp.Prediction,
		Confidence:      resp.Confidence,
		Recommendations: recs,
	}
}

var errMissingPrediction = errors.New("missing prediction")

// failureReason condenses err into a short diagnostic for logs.
func failureReason(err error) string {
	var statusErr *httputils.StatusError
	var timeoutErr interface{ Timeout() bool }
	var urlErr *url.Error
	switch {
	case errors.As(err, &statusErr):
		return statusErr.Error()
	case errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &timeoutErr) && timeoutErr.Timeout():
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.As(err, &urlErr):
		return "request failed"
	case errors.Is(err, errMissingPrediction):
		return "malformed payload: missing prediction"
	default:
		return "malformed payload"
	}
}
