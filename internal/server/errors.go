package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	apperrors "github.com/tschf/mle-module-loader/pkg/errors"
	"github.com/tschf/mle-module-loader/pkg/ident"
	"github.com/tschf/mle-module-loader/pkg/integrations"
	"github.com/tschf/mle-module-loader/pkg/loader"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

// writeError converts any pipeline error into a coded JSON response.
func writeError(w http.ResponseWriter, err error) {
	coded := toCoded(err)
	writeJSON(w, statusFor(coded.Code), errorResponse{
		Error: errorBody{Code: string(coded.Code), Message: apperrors.UserMessage(coded)},
	})
}

// toCoded attaches an error code to the domain errors the pipeline returns.
// Already-coded errors pass through.
func toCoded(err error) *apperrors.Error {
	var coded *apperrors.Error
	if errors.As(err, &coded) {
		return coded
	}

	var malformed *ident.MalformedIdentifierError
	var collision *ident.NormalizationCollisionError
	var fetchErr *loader.FetchError
	switch {
	case errors.As(err, &malformed):
		return apperrors.Wrap(apperrors.ErrCodeInvalidIdentifier, err, "%s", malformed.Error())
	case errors.As(err, &collision):
		return apperrors.Wrap(apperrors.ErrCodeNameCollision, err, "%s", collision.Error())
	case errors.As(err, &fetchErr):
		if errors.Is(err, integrations.ErrNotFound) {
			return apperrors.Wrap(apperrors.ErrCodePackageNotFound, err, "%s", fetchErr.Error())
		}
		return apperrors.Wrap(apperrors.ErrCodeFetchFailed, err, "%s", fetchErr.Error())
	case errors.Is(err, integrations.ErrNotFound):
		return apperrors.Wrap(apperrors.ErrCodePackageNotFound, err, "%s", err.Error())
	case errors.Is(err, integrations.ErrNetwork):
		return apperrors.Wrap(apperrors.ErrCodeNetwork, err, "%s", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.Wrap(apperrors.ErrCodeTimeout, err, "request timed out")
	}
	return apperrors.Wrap(apperrors.ErrCodeInternal, err, "%s", err.Error())
}

func statusFor(code apperrors.Code) int {
	switch code {
	case apperrors.ErrCodeInvalidInput, apperrors.ErrCodeInvalidIdentifier,
		apperrors.ErrCodeInvalidPackage, apperrors.ErrCodeInvalidEnvName,
		apperrors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case apperrors.ErrCodeNotFound, apperrors.ErrCodePackageNotFound, apperrors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeNameCollision:
		return http.StatusConflict
	case apperrors.ErrCodeUnresolvedReference:
		return http.StatusUnprocessableEntity
	case apperrors.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case apperrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case apperrors.ErrCodeNetwork, apperrors.ErrCodeFetchFailed, apperrors.ErrCodeListerFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
