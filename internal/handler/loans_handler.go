package handler

import (
	"encoding/json"
	"net/http"

	"github.com/davigor/finance-tracker-go/internal/domain"
	"github.com/davigor/finance-tracker-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Legacy loans — /api/loans
// ============================================================

func listLoansHandler(loanSvc *service.LoanService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/loans")
		defer span.End()

		loans, err := loanSvc.List(ctx, UserIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, loans)
	}
}

func addLoanHandler(loanSvc *service.LoanService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/loans")
		defer span.End()

		var req domain.LoanRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		created, err := loanSvc.Add(ctx, UserIDFromContext(ctx), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

// updateLoanHandler accepts a partial body; only provided fields are
// written, so marking a loan paid does not require resending it.
func updateLoanHandler(loanSvc *service.LoanService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /api/loans/{loanId}")
		defer span.End()

		loanID := chi.URLParam(r, "loanId")

		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		updates := make(map[string]any)
		for _, field := range []string{"type", "person_name", "phone_number", "amount", "paid_amount", "is_paid", "description", "date"} {
			if v, ok := body[field]; ok {
				updates[field] = v
			}
		}

		updated, err := loanSvc.Update(ctx, UserIDFromContext(ctx), loanID, updates)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func deleteLoanHandler(loanSvc *service.LoanService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /api/loans/{loanId}")
		defer span.End()

		loanID := chi.URLParam(r, "loanId")
		if err := loanSvc.Delete(ctx, UserIDFromContext(ctx), loanID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "loan deleted"})
	}
}
