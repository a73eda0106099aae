package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Simplici0/sourcing/internal/apperr"
	"github.com/Simplici0/sourcing/internal/catalog"
	"github.com/Simplici0/sourcing/internal/pricing"
	"github.com/Simplici0/sourcing/internal/report"
	"github.com/Simplici0/sourcing/internal/validation"
)

const maxBodyBytes = 1 << 20

type errorDetail struct {
	Type    string                  `json:"type"`
	Message string                  `json:"message"`
	Fields  []validation.FieldError `json:"fields,omitempty"`
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	detail := errorDetail{Type: string(apperr.TypeOf(err)), Message: err.Error()}

	var verr *validation.Error
	if errors.As(err, &verr) {
		detail.Fields = verr.Fields
	}

	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		detail.Message = "internal error"
	}
	writeJSON(w, status, errorBody{Error: detail})
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperr.Input("invalid JSON body", err)
	}
	return nil
}

func productID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Input("invalid product id", err).WithContext("id", raw)
	}
	return id, nil
}

func wantsText(r *http.Request) bool {
	return r.URL.Query().Get("format") == "text" || strings.HasPrefix(r.Header.Get("Accept"), "text/plain")
}

func writeText(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, body)
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.PingContext(r.Context()); err != nil {
		s.writeError(w, r, apperr.Internal("database unavailable", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := decodeJSON(r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			s.writeError(w, r, apperr.Input("invalid form", err))
			return
		}
		req = loginRequest{Email: r.FormValue("email"), Password: r.FormValue("password")}
	}

	valid, err := s.auth.validateCredentials(r.Context(), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		s.writeError(w, r, apperr.Internal("authentication error", err))
		return
	}
	if !valid {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: errorDetail{Type: "UNAUTHORIZED", Message: "invalid credentials"}})
		return
	}

	s.auth.setSessionCookie(w, strings.TrimSpace(req.Email))
	writeJSON(w, http.StatusOK, map[string]string{"email": strings.TrimSpace(req.Email)})
}

func (s *server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.auth.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleQuote(w http.ResponseWriter, r *http.Request) {
	var req catalog.QuoteRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.eval.Quote(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if wantsText(r) {
		variant := pricing.VariantReport{Name: "quote", Inputs: res.Inputs, Report: res.Report}
		writeText(w, report.Text(report.Header{Rate: res.Rate.Rate, RateSource: string(res.Rate.Source)}, []pricing.VariantReport{variant}))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *server) handleRate(w http.ResponseWriter, r *http.Request) {
	settings, err := s.store.Settings(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.eval.Rate(r.Context(), settings))
}

func (s *server) handleSettingsGet(w http.ResponseWriter, r *http.Request) {
	settings, err := s.store.Settings(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *server) handleSettingsSave(w http.ResponseWriter, r *http.Request) {
	var in catalog.Settings
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	saved, err := s.store.SaveSettings(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *server) handleProductsList(w http.ResponseWriter, r *http.Request) {
	products, err := s.store.List(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (s *server) handleProductCreate(w http.ResponseWriter, r *http.Request) {
	var in catalog.Product
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	p, err := s.store.Create(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ev, err := s.eval.EvaluateProduct(r.Context(), p.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ev.Product)
}

func (s *server) handleProductGet(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	p, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *server) handleProductUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var in catalog.Product
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	in.ID = id

	if _, err := s.store.Update(r.Context(), in); err != nil {
		s.writeError(w, r, err)
		return
	}

	ev, err := s.eval.EvaluateProduct(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ev.Product)
}

func (s *server) handleProductDelete(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.store.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleVariantAppend(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	p, err := s.store.AppendVariant(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *server) handleVariantRemoveLast(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	p, err := s.store.RemoveLastVariant(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *server) handleProductReport(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ev, err := s.eval.EvaluateProduct(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (s *server) handleProductText(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ev, err := s.eval.EvaluateProduct(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeText(w, report.Text(report.Header{
		Title:      ev.Product.Name,
		Rate:       ev.Rate.Rate,
		RateSource: string(ev.Rate.Source),
		Warnings:   ev.Warnings,
	}, ev.Variants))
}
