package server

import (
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	apperrors "github.com/jrsteele09/genzmobo-auth/internal/errors"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const maxBodyBytes = 1 << 20

// envelope is the body of every JSON response.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Err(err).Msg("failed to encode response")
	}
}

func writeData(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: data})
}

func writeMessage(w http.ResponseWriter, message string) {
	writeData(w, map[string]string{"message": message})
}

// writeError renders err with its kind's status and code. Internal causes
// are logged, never rendered.
func writeError(w http.ResponseWriter, err error) {
	kind := apperrors.KindOf(err)
	if kind == apperrors.Internal {
		log.Err(err).Msg("internal error")
	}
	writeJSON(w, kind.Status(), envelope{
		Success: false,
		Error:   apperrors.MessageOf(err),
		Code:    kind.Code(),
	})
}

// decodeBody reads a JSON request into dst and validates its struct tags.
func decodeBody(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return apperrors.Wrap(apperrors.InvalidRequest, err)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return apperrors.Newf(apperrors.InvalidRequest, "Malformed JSON body")
	}
	if err := validate.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.Wrap(apperrors.InvalidRequest, err)
	}
	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required":
			messages = append(messages, fe.Field()+" is required")
		case "email":
			messages = append(messages, fe.Field()+" must be a valid email")
		default:
			messages = append(messages, fe.Field()+" is invalid")
		}
	}
	return apperrors.Newf(apperrors.InvalidRequest, "%s", strings.Join(messages, "; "))
}
