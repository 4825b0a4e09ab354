// Package handlers implements the HTTP handlers for the deck API.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"

	"github.com/ramonehamilton/deckforge/internal/api/response"
	"github.com/ramonehamilton/deckforge/internal/cards"
	"github.com/ramonehamilton/deckforge/internal/engine"
)

const maxBodyBytes = 8 << 20

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// Report fields by their JSON names.
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// decodeRequest decodes a JSON body into dst and validates it. On failure it has
// already written a 400 response.
func decodeRequest(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			response.BadRequest(w, errors.New("request body is required"))
			return false
		}
		response.BadRequest(w, errors.New("invalid request body"))
		return false
	}
	if err := getValidator().Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			response.BadRequest(w, err)
			return false
		}
		response.ValidationFailed(w, fieldErrors(verrs))
		return false
	}
	return true
}

// fieldMessages maps validator tags to message templates: %[1]s is the field,
// %[2]s the tag parameter.
var fieldMessages = map[string]string{
	"required": "%[1]s is required",
	"len":      "%[1]s must have exactly %[2]s entries",
	"max":      "%[1]s must have at most %[2]s entries",
	"min":      "%[1]s must have at least %[2]s entries",
	"unique":   "%[1]s must not contain duplicates",
	"oneof":    "%[1]s must be one of: %[2]s",
	"gte":      "%[1]s must be greater than or equal to %[2]s",
	"lte":      "%[1]s must be less than or equal to %[2]s",
}

func fieldErrors(verrs validator.ValidationErrors) []response.FieldError {
	out := make([]response.FieldError, len(verrs))
	for i, fe := range verrs {
		// Drop the root struct name: "ScoreRequest.deck[2]" -> "deck[2]".
		_, field, ok := strings.Cut(fe.Namespace(), ".")
		if !ok {
			field = fe.Field()
		}
		msg := fmt.Sprintf("%s failed %s validation", field, fe.Tag())
		if tmpl, ok := fieldMessages[fe.Tag()]; ok {
			msg = fmt.Sprintf(tmpl, field, fe.Param())
		}
		if fe.Kind() == reflect.String && (fe.Tag() == "max" || fe.Tag() == "min") {
			msg = strings.Replace(msg, "entries", "characters", 1)
		}
		out[i] = response.FieldError{Field: field, Tag: fe.Tag(), Message: msg}
	}
	return out
}

// engineError maps engine errors to responses.
func engineError(w http.ResponseWriter, err error) {
	if errors.Is(err, engine.ErrNotReady) {
		response.ServiceUnavailable(w, err)
		return
	}
	response.InternalError(w, err)
}

// CollectionSource loads a stored player collection.
type CollectionSource interface {
	GetCollection(ctx context.Context, playerTag string) ([]cards.Card, error)
}

// PlayerCollection is embedded by requests that need a collection: either inline
// cards or the tag of a stored collection.
type PlayerCollection struct {
	Collection []cards.Card `json:"collection"`
	PlayerTag  string       `json:"playerTag" validate:"omitempty,max=32"`
}

func (p PlayerCollection) resolve(ctx context.Context, src CollectionSource) ([]cards.Card, error) {
	if len(p.Collection) > 0 || p.PlayerTag == "" || src == nil {
		return p.Collection, nil
	}
	return src.GetCollection(ctx, p.PlayerTag)
}
