package handler

import (
	"encoding/json"
	"net/http"

	"github.com/davigor/finance-tracker-go/internal/domain"
	"github.com/davigor/finance-tracker-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Loan contacts — /api/loan-contacts
// ============================================================

func listContactsHandler(contactSvc *service.ContactService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/loan-contacts")
		defer span.End()

		contacts, err := contactSvc.List(ctx, UserIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, contacts)
	}
}

func createContactHandler(contactSvc *service.ContactService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/loan-contacts")
		defer span.End()

		var req domain.ContactRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		created, err := contactSvc.Create(ctx, UserIDFromContext(ctx), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func getContactHandler(contactSvc *service.ContactService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/loan-contacts/{contactId}")
		defer span.End()

		contactID := chi.URLParam(r, "contactId")
		span.SetAttributes(attribute.String("contact.id", contactID))

		detail, activities, err := contactSvc.Get(ctx, UserIDFromContext(ctx), contactID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"contact":    detail,
			"activities": activities,
		})
	}
}

func updateContactHandler(contactSvc *service.ContactService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /api/loan-contacts/{contactId}")
		defer span.End()

		contactID := chi.URLParam(r, "contactId")

		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		updates := make(map[string]any)
		for _, field := range []string{"name", "phone_number", "email", "notes", "initial_balance"} {
			if v, ok := body[field]; ok {
				updates[field] = v
			}
		}

		updated, err := contactSvc.Update(ctx, UserIDFromContext(ctx), contactID, updates)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func deleteContactHandler(contactSvc *service.ContactService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /api/loan-contacts/{contactId}")
		defer span.End()

		contactID := chi.URLParam(r, "contactId")
		if err := contactSvc.Delete(ctx, UserIDFromContext(ctx), contactID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "contact deleted"})
	}
}

// ============================================================
// Activity ledger — /api/loan-contacts/{contactId}/activities
// ============================================================

func listActivitiesHandler(contactSvc *service.ContactService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/loan-contacts/{contactId}/activities")
		defer span.End()

		contactID := chi.URLParam(r, "contactId")
		span.SetAttributes(attribute.String("contact.id", contactID))

		activities, err := contactSvc.Activities(ctx, UserIDFromContext(ctx), contactID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"activities": activities})
	}
}

func addActivityHandler(contactSvc *service.ContactService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/loan-contacts/{contactId}/activities")
		defer span.End()

		contactID := chi.URLParam(r, "contactId")
		span.SetAttributes(attribute.String("contact.id", contactID))

		var req domain.ActivityRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		created, err := contactSvc.AddActivity(ctx, UserIDFromContext(ctx), contactID, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func deleteActivityHandler(contactSvc *service.ContactService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /api/loan-contacts/{contactId}/activities/{activityId}")
		defer span.End()

		contactID := chi.URLParam(r, "contactId")
		activityID := chi.URLParam(r, "activityId")

		newBalance, err := contactSvc.DeleteActivity(ctx, UserIDFromContext(ctx), contactID, activityID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"message":         "activity deleted",
			"current_balance": newBalance,
		})
	}
}
