package contact

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"contact-gateway/contact/domain"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const maxBodyBytes = 64 << 10

// ContactSender é o gateway visto pela camada HTTP.
type ContactSender interface {
	SendContactEmail(ctx context.Context, sub domain.Submission) domain.Result
}

type contactRequest struct {
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,email,max=254"`
	Company   string `json:"company" validate:"max=200"`
	Message   string `json:"message" validate:"required,max=5000"`
	// BotField é o honeypot: humanos não veem o campo.
	BotField string `json:"botField"`
}

func (c *contactRequest) normalize() {
	c.FirstName = strings.TrimSpace(c.FirstName)
	c.LastName = strings.TrimSpace(c.LastName)
	c.Email = strings.TrimSpace(c.Email)
	c.Company = strings.TrimSpace(c.Company)
	c.Message = strings.TrimSpace(c.Message)
	c.BotField = strings.TrimSpace(c.BotField)
}

type HandlerOptions struct {
	Sender ContactSender
	KeyFn  KeyFunc
	Log    zerolog.Logger
}

// Handler atende POST /api/contact.
type Handler struct {
	sender   ContactSender
	keyFn    KeyFunc
	validate *validator.Validate
	log      zerolog.Logger
}

func NewHandler(opts HandlerOptions) *Handler {
	if opts.KeyFn == nil {
		opts.KeyFn = ClientIP("", false)
	}
	return &Handler{
		sender:   opts.Sender,
		keyFn:    opts.KeyFn,
		validate: newValidator(),
		log:      opts.Log.With().Str("component", "contact_handler").Logger(),
	}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// erros usam o nome do campo no JSON
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, http.StatusRequestEntityTooLarge, codeInvalidBody, "Request body is too large.")
			return
		}
		writeError(w, r, http.StatusBadRequest, codeInvalidBody, msgInvalidBody)
		return
	}
	req.normalize()

	if req.BotField != "" {
		// honeypot: finge sucesso e não envia nada
		h.log.Info().Str("ip", h.keyFn(r)).Msg("honeypot field filled, submission dropped")
		writeJSON(w, r, http.StatusOK, response{Success: true, Message: domain.MsgSent})
		return
	}

	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			writeError(w, r, http.StatusBadRequest, codeInvalidBody, msgInvalidBody)
			return
		}
		writeJSON(w, r, http.StatusBadRequest, response{
			Message: msgValidation,
			Error:   codeValidation,
			Fields:  fieldErrors(verrs),
		})
		return
	}

	sub := domain.Submission{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Company:     req.Company,
		Message:     req.Message,
		IPAddress:   h.keyFn(r),
		UserAgent:   r.UserAgent(),
		ReferenceID: uuid.NewString(),
	}

	res := h.sender.SendContactEmail(r.Context(), sub)

	if res.Window != nil {
		setWindowHeaders(w, *res.Window)
	}
	if res.RateLimited && res.RetryAfter > 0 {
		w.Header().Set("Retry-After", formatSeconds(res.RetryAfter))
	}

	body := response{
		Success:            res.Success,
		Message:            res.Message,
		RateLimited:        res.RateLimited,
		CircuitBreakerOpen: res.CircuitBreakerOpen,
	}
	if res.Success {
		body.ReferenceID = sub.ReferenceID
	}
	writeJSON(w, r, statusFor(res), body)
}

func setWindowHeaders(w http.ResponseWriter, d domain.WindowDecision) {
	w.Header().Set("X-RateLimit-Limit", formatInt(d.Limit))
	w.Header().Set("X-RateLimit-Remaining", formatInt(d.Remaining()))
	w.Header().Set("X-RateLimit-Reset", formatInt64(d.ResetAt.Unix()))
}

func fieldErrors(verrs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			out[fe.Field()] = "is required"
		case "email":
			out[fe.Field()] = "must be a valid email address"
		case "max":
			out[fe.Field()] = "must be at most " + fe.Param() + " characters"
		default:
			out[fe.Field()] = "is invalid"
		}
	}
	return out
}
