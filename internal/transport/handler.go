package transport

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	api "github.com/romanconv/romanconv/api/v1"
	"github.com/romanconv/romanconv/internal/service"
	"github.com/romanconv/romanconv/pkg/log"
	"github.com/sirupsen/logrus"
)

const queryParam = "query"

type TransportHandler struct {
	service service.Service
	log     logrus.FieldLogger
	now     func() time.Time
}

func NewTransportHandler(svc service.Service, log logrus.FieldLogger) *TransportHandler {
	return &TransportHandler{
		service: svc,
		log:     log,
		now:     time.Now,
	}
}

func (h *TransportHandler) RegisterRoutes(r chi.Router) {
	r.Get("/romannumeral", h.ToRoman)
	r.Get("/arabicnumeral", h.FromRoman)
	r.Get("/health", h.Health)
}

// (GET /romannumeral?query=<integer>)
func (h *TransportHandler) ToRoman(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.ToRoman(r.Context(), r.URL.Query().Get(queryParam))
	h.respond(w, r, resp, err)
}

// (GET /arabicnumeral?query=<numeral>)
func (h *TransportHandler) FromRoman(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.FromRoman(r.Context(), r.URL.Query().Get(queryParam))
	h.respond(w, r, resp, err)
}

// (GET /health)
func (h *TransportHandler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSONResponse(w, api.HealthResponse{
		Status:    api.HealthStatusOK,
		Timestamp: h.now().UTC().Format(api.TimestampFormat),
	}, http.StatusOK)
}

func (h *TransportHandler) respond(w http.ResponseWriter, r *http.Request, resp *api.ConversionResponse, err error) {
	if err == nil {
		WriteJSONResponse(w, resp, http.StatusOK)
		return
	}

	code, message := StatusFromError(err)
	if code >= http.StatusInternalServerError {
		log.WithReqIDFromCtx(r.Context(), h.log).WithError(err).Error("Conversion failed")
	}
	WriteTextResponse(w, message, code)
}
