package httputils

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"mindtrack/mindtrack/utils/errs"
	"mindtrack/mindtrack/utils/logging"

	"go.uber.org/zap"
)

// StatusError is returned by PostJSON for any non-2xx response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("bad status: %d", e.Code)
}

// PostJSON posts body as JSON and decodes a 2xx response into resp.
func PostJSON(ctx context.Context, client *http.Client, url string, body interface{}, resp interface{}) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	r, err := client.Do(req)
	if err != nil {
		return err
	}
	defer r.Body.Close()
	if r.StatusCode < 200 || r.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, r.Body)
		return &StatusError{Code: r.StatusCode}
	}
	if resp != nil {
		return json.NewDecoder(r.Body).Decode(resp)
	}
	return nil
}

func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

var messages = map[string]map[error]string{
	"id": {
		errs.ErrValidation:         "Data yang dikirim tidak valid!",
		errs.ErrNotFoundOrNotOwned: "Data tidak ditemukan!",
		errs.ErrUnauthenticated:    "Tidak terotorisasi!",
		errs.ErrStorage:            "Terjadi kesalahan pada server, silakan coba lagi!",
	},
	"en": {
		errs.ErrValidation:         "The submitted data is invalid!",
		errs.ErrNotFoundOrNotOwned: "Data not found!",
		errs.ErrUnauthenticated:    "Unauthorized!",
		errs.ErrStorage:            "Something went wrong on our side, please try again!",
	},
}

// Lang picks "en" when the client prefers English and "id" otherwise.
func Lang(r *http.Request) string {
	if strings.HasPrefix(strings.ToLower(r.Header.Get("Accept-Language")), "en") {
		return "en"
	}
	return "id"
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, errs.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrNotFoundOrNotOwned):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrUnauthenticated):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// MessageFor returns a localized, user-facing message. Internal error text is never included.
func MessageFor(err error, lang string) string {
	if msg := errs.UserMessage(err); msg != "" {
		return msg
	}
	table, ok := messages[lang]
	if !ok {
		table = messages["id"]
	}
	for _, kind := range []error{errs.ErrValidation, errs.ErrNotFoundOrNotOwned, errs.ErrUnauthenticated} {
		if errors.Is(err, kind) {
			return table[kind]
		}
	}
	return table[errs.ErrStorage]
}

// WriteError logs server-side failures and writes {"message": ...}.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		logging.ErrorLogger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	WriteJSON(w, status, map[string]string{"message": MessageFor(err, Lang(r))})
}
