package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	api "github.com/romanconv/romanconv/api/v1"
	"github.com/romanconv/romanconv/internal/instrumentation/metrics"
	"github.com/romanconv/romanconv/internal/instrumentation/tracing"
	"github.com/romanconv/romanconv/pkg/log"
	"github.com/romanconv/romanconv/pkg/roman"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const tracerName = "romanconv/service"

// Service is implemented by ServiceHandler and consumed by the transport layer.
type Service interface {
	ToRoman(ctx context.Context, query string) (*api.ConversionResponse, error)
	FromRoman(ctx context.Context, query string) (*api.ConversionResponse, error)
}

// ConversionObserver receives the outcome of every conversion.
type ConversionObserver interface {
	ObserveConversion(direction, status string, value int, elapsed time.Duration)
	ObserveError(errType, context string)
}

type ServiceHandler struct {
	log      logrus.FieldLogger
	observer ConversionObserver
}

var _ Service = (*ServiceHandler)(nil)

// NewServiceHandler returns a handler reporting to observer. A nil observer
// disables conversion metrics.
func NewServiceHandler(log logrus.FieldLogger, observer ConversionObserver) *ServiceHandler {
	if observer == nil {
		observer = noopObserver{}
	}
	return &ServiceHandler{
		log:      log,
		observer: observer,
	}
}

// ToRoman parses query as a decimal integer and converts it.
func (h *ServiceHandler) ToRoman(ctx context.Context, query string) (*api.ConversionResponse, error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "RomanConversion")
	defer span.End()
	span.SetAttributes(
		attribute.String("roman.input", query),
		attribute.String("roman.direction", metrics.DirectionToRoman),
	)

	start := time.Now()
	n, err := roman.ParseArabic(query)
	if err == nil {
		var numeral string
		numeral, err = roman.ToRoman(n)
		if err == nil {
			h.observer.ObserveConversion(metrics.DirectionToRoman, metrics.StatusSuccess, n, time.Since(start))
			span.SetAttributes(
				attribute.String("roman.input_range", metrics.InputRange(n)),
				attribute.String("roman.output", numeral),
			)
			log.WithReqIDFromCtx(ctx, h.log).WithFields(logrus.Fields{
				"input":  n,
				"output": numeral,
			}).Debug("Converted number to Roman numeral")
			return &api.ConversionResponse{Input: query, Output: numeral}, nil
		}
	}

	h.fail(ctx, metrics.DirectionToRoman, start, err)
	tracing.RecordError(span, err)
	return nil, err
}

// FromRoman converts a canonical upper-case Roman numeral to its decimal value.
func (h *ServiceHandler) FromRoman(ctx context.Context, query string) (*api.ConversionResponse, error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "RomanConversion")
	defer span.End()
	span.SetAttributes(
		attribute.String("roman.input", query),
		attribute.String("roman.direction", metrics.DirectionFromRoman),
	)

	start := time.Now()
	if query == "" {
		h.fail(ctx, metrics.DirectionFromRoman, start, roman.ErrMissingInput)
		tracing.RecordError(span, roman.ErrMissingInput)
		return nil, roman.ErrMissingInput
	}

	n, err := roman.FromRoman(query)
	if err != nil {
		h.fail(ctx, metrics.DirectionFromRoman, start, err)
		tracing.RecordError(span, err)
		return nil, err
	}

	h.observer.ObserveConversion(metrics.DirectionFromRoman, metrics.StatusSuccess, n, time.Since(start))
	span.SetAttributes(attribute.String("roman.input_range", metrics.InputRange(n)))
	log.WithReqIDFromCtx(ctx, h.log).WithFields(logrus.Fields{
		"input":  query,
		"output": n,
	}).Debug("Converted Roman numeral to number")
	return &api.ConversionResponse{Input: query, Output: strconv.Itoa(n)}, nil
}

func (h *ServiceHandler) fail(ctx context.Context, direction string, start time.Time, err error) {
	errType := ErrorType(err)
	h.observer.ObserveConversion(direction, metrics.StatusError, 0, time.Since(start))
	h.observer.ObserveError(errType, direction)
	log.WithReqIDFromCtx(ctx, h.log).WithError(err).WithField("error_type", errType).Debug("Conversion rejected")
}

// ErrorType maps a conversion error to a stable metric label.
func ErrorType(err error) string {
	switch {
	case errors.Is(err, roman.ErrMissingInput):
		return "missing_input"
	case errors.Is(err, roman.ErrOutOfRange):
		return "out_of_range"
	case errors.Is(err, roman.ErrNotInteger):
		return "not_integer"
	case errors.Is(err, roman.ErrInvalidFormat):
		return "invalid_format"
	case errors.Is(err, roman.ErrInvalidRomanNumeral):
		return "invalid_roman_numeral"
	default:
		return "internal"
	}
}

type noopObserver struct{}

func (noopObserver) ObserveConversion(string, string, int, time.Duration) {}
func (noopObserver) ObserveError(string, string)                          {}
