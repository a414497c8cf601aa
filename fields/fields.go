// Package fields holds the request/response types, database models and
// validation glue shared across timerd services.
package fields

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"github.com/timerd/timerd/apperr"
)

var log = logrus.New()

// TimerRequest is the payload for creating a managed timer. Durations are
// always expressed in microseconds.
type TimerRequest struct {
	DurationMicros int64  `json:"duration_micros" binding:"required,micros"`
	WebhookURL     string `json:"webhook_url,omitempty" binding:"omitempty,url"`
	Payload        string `json:"payload,omitempty" binding:"max=4096"`
	Autostart      bool   `json:"autostart,omitempty"`
}

// TimerResponse is the API view of a TimerRecord.
type TimerResponse struct {
	UUID           string     `json:"uuid"`
	State          string     `json:"state"`
	DurationMicros int64      `json:"duration_micros"`
	ElapsedMicros  int64      `json:"elapsed_micros"`
	Expired        bool       `json:"expired"`
	WebhookURL     string     `json:"webhook_url,omitempty"`
	Payload        string     `json:"payload,omitempty"`
	FiredAt        *time.Time `json:"fired_at,omitempty"`
}

// ErrDetails maps a field name to the validation tag it failed.
type ErrDetails map[string]interface{}

// ErrorDetails is the response body we render for validation failures.
type ErrorDetails struct {
	Message string       `json:"message"`
	Code    string       `json:"code"`
	Details []ErrDetails `json:"details,omitempty"`
}

// ErrorToString flattens a single validator error into ErrDetails.
func ErrorToString(e validator.FieldError) ErrDetails {
	return ErrDetails{e.Field(): e.Tag()}
}

// ValidationResponse collects every field error of a binding failure into the
// payload handlers return with a 400.
func ValidationResponse(errs validator.ValidationErrors) ErrorDetails {
	var details []ErrDetails
	for _, err := range errs {
		details = append(details, ErrorToString(err))
	}
	return ErrorDetails{
		Message: "Request fields validation error",
		Code:    apperr.ErrValidation.Code,
		Details: details,
	}
}
