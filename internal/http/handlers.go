package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"canteen/internal/core"
	"canteen/internal/ledger"
	"canteen/internal/log"
)

type fundsRequest struct {
	Amount core.Money `json:"amount"`
	Date   core.Date  `json:"date"`
}

type monthRequest struct {
	Month string `json:"month"`
}

type okResponse struct {
	OK     bool        `json:"ok"`
	Ledger core.Ledger `json:"ledger"`
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			s.logger.WarnContext(r.Context(), "Readiness check failed", log.FieldError, err.Error())
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func handlePreflight(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetData(w http.ResponseWriter, r *http.Request) {
	l, err := s.ledger.Snapshot(r.Context())
	if err != nil {
		writeServiceError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (s *Server) handleReplaceData(w http.ResponseWriter, r *http.Request) {
	var l core.Ledger
	if err := decodeJSON(w, r, &l); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	saved, err := s.ledger.Replace(r.Context(), l)
	if err != nil {
		writeServiceError(w, r, log.OpImport, err)
		return
	}
	s.invalidateSummaries()
	writeJSON(w, http.StatusOK, okResponse{OK: true, Ledger: saved})
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	var e core.Entry
	if err := decodeJSON(w, r, &e); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	saved, err := s.ledger.AddExpense(r.Context(), e)
	if err != nil {
		writeServiceError(w, r, log.OpCreate, err)
		return
	}
	s.invalidateSummaries()
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing entry id")
		return
	}
	if err := s.ledger.DeleteExpense(r.Context(), id); err != nil {
		writeServiceError(w, r, log.OpDelete, err)
		return
	}
	s.invalidateSummaries()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddFunds(w http.ResponseWriter, r *http.Request) {
	var req fundsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	entry, err := s.ledger.AddFunds(r.Context(), req.Amount, req.Date)
	if err != nil {
		writeServiceError(w, r, log.OpTopUp, err)
		return
	}
	s.invalidateSummaries()
	writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleStartMonth(w http.ResponseWriter, r *http.Request) {
	var req monthRequest
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	l, err := s.ledger.StartMonth(r.Context(), req.Month)
	if err != nil {
		writeServiceError(w, r, log.OpRollover, err)
		return
	}
	s.invalidateSummaries()
	writeJSON(w, http.StatusOK, l)
}

// handleSummary accepts explicit from/to bounds or a named period. Explicit
// bounds take precedence.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	label := q.Get("label")

	var from, to *core.Date
	var err error
	if q.Get("from") != "" || q.Get("to") != "" {
		if from, err = ledger.ParseBound(q.Get("from")); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if to, err = ledger.ParseBound(q.Get("to")); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	} else {
		var periodLabel string
		from, to, periodLabel, err = ledger.ResolvePeriod(q.Get("period"), s.today())
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if label == "" {
			label = periodLabel
		}
	}

	res, err := s.summary(r.Context(), from, to, label)
	if err != nil {
		writeServiceError(w, r, log.OpSummary, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	l, err := s.ledger.Snapshot(r.Context())
	if err != nil {
		writeServiceError(w, r, log.OpRead, err)
		return
	}
	body, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		writeServiceError(w, r, log.OpRead, fmt.Errorf("encode ledger: %w", err))
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "grocery-ledger-"+l.Month+".json"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
