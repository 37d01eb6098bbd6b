package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"learnhub_backend/internal/api/middleware"
	"learnhub_backend/internal/app/service"
	"learnhub_backend/internal/common"
	"learnhub_backend/internal/domain/model"
)

type TestHandler struct {
	testService *service.TestService
}

func NewTestHandler(ts *service.TestService) *TestHandler {
	return &TestHandler{testService: ts}
}

func (h *TestHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Authenticator) // All test routes require auth

	r.With(middleware.TeacherOnly).Post("/create", h.createTest)
	// chi requires one wildcard name per position: the {testID} segment
	// carries the share link on the take route and the internal id below.
	r.Get("/{testID}", h.getTestByLink)
	r.With(middleware.StudentOnly).Post("/{testID}/submit", h.submitTest)
	r.Get("/{testID}/result/{studentID}", h.getResult)
	r.With(middleware.TeacherOnly).Get("/{testID}/submissions", h.listSubmissions)
}

func (h *TestHandler) createTest(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	var req service.CreateTestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	test, err := h.testService.CreateTest(r.Context(), userID, req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"message":    "Test created successfully",
		"test_id":    test.ID,
		"share_link": test.ShareLink,
	})
}

func (h *TestHandler) getTestByLink(w http.ResponseWriter, r *http.Request) {
	link := chi.URLParam(r, "testID") // share link, not the internal id

	view, err := h.testService.ResolveLink(r.Context(), link)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]*model.TestView{"test": view})
}

func (h *TestHandler) submitTest(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}
	testID := chi.URLParam(r, "testID")

	var req service.SubmitTestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	sub, err := h.testService.SubmitTest(r.Context(), testID, userID, req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Test submitted successfully",
		"score":   sub.Score,
	})
}

func (h *TestHandler) getResult(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}
	callerRole, _ := middleware.GetUserRoleFromContext(r.Context())
	testID := chi.URLParam(r, "testID")
	studentID := chi.URLParam(r, "studentID")

	sub, err := h.testService.GetResult(r.Context(), testID, studentID, callerID, callerRole)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"result":  sub,
		"answers": sub.Answers,
	})
}

func (h *TestHandler) listSubmissions(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}
	callerRole, _ := middleware.GetUserRoleFromContext(r.Context())
	testID := chi.URLParam(r, "testID")

	subs, err := h.testService.ListSubmissions(r.Context(), testID, callerID, callerRole)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"submissions": subs})
}
