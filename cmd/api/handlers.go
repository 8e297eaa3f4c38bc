package main

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/nerraj-droid/bisig-final-sub001/auth"
	"github.com/nerraj-droid/bisig-final-sub001/blotter"
	"github.com/nerraj-droid/bisig-final-sub001/hearing"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if s.authService == nil {
		unavailable(w, "officials")
		return
	}
	var req auth.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	// Registration is open only until the first official exists; after that
	// the caller must present a captain's token.
	var by auth.Role
	if token, ok := bearerToken(r); ok {
		_, role, err := s.authService.VerifyToken(token)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized", Detail: "invalid token"})
			return
		}
		by = role
	}

	official, err := s.authService.Register(r.Context(), req, by)
	if err != nil {
		writeError(w, r, err)
		return
	}
	zap.S().Infow("official registered", "officialId", official.ID, "role", official.Role)
	writeJSON(w, http.StatusCreated, toOfficialResponse(*official))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.authService == nil {
		unavailable(w, "officials")
		return
	}
	var req auth.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := s.authService.Login(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token":     res.Token,
		"expiresAt": res.ExpiresAt.UTC().Format(time.RFC3339),
		"official":  toOfficialResponse(res.Official),
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	if s.authService == nil {
		unavailable(w, "officials")
		return
	}
	official, err := s.authService.GetOfficialByID(r.Context(), actorID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOfficialResponse(*official))
}

func (s *Server) handleListCases(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := blotter.Filters{
		Status:   blotter.Status(strings.ToUpper(q.Get("status"))),
		Priority: blotter.Priority(strings.ToUpper(q.Get("priority"))),
		Query:    q.Get("q"),
	}
	var err error
	if filters.Page, err = intParam(q.Get("page")); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Detail: "page must be a number"})
		return
	}
	if filters.PageSize, err = intParam(q.Get("pageSize")); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Detail: "pageSize must be a number"})
		return
	}

	res, err := s.caseService.ListCases(r.Context(), filters)
	if err != nil {
		writeError(w, r, err)
		return
	}
	items := make([]caseResponse, 0, len(res.Items))
	for _, c := range res.Items {
		items = append(items, toCaseResponse(c))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "total": res.Total})
}

type createCaseRequest struct {
	Priority         blotter.Priority `json:"priority"`
	IncidentType     string           `json:"incidentType"`
	IncidentDate     string           `json:"incidentDate"`
	IncidentTime     string           `json:"incidentTime"`
	IncidentLocation string           `json:"incidentLocation"`
	Description      string           `json:"description"`
	Complainant      partyRequest     `json:"complainant"`
	Respondent       partyRequest     `json:"respondent"`
	FilingFee        *float64         `json:"filingFee"`
}

type partyRequest struct {
	ResidentID *string `json:"residentId"`
	Name       string  `json:"name"`
	Address    string  `json:"address"`
	Contact    string  `json:"contact"`
}

func (p partyRequest) party() blotter.Party {
	return blotter.Party{ResidentID: p.ResidentID, Name: p.Name, Address: p.Address, Contact: p.Contact}
}

func (s *Server) handleCreateCase(w http.ResponseWriter, r *http.Request) {
	var req createCaseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := s.caseService.CreateCase(r.Context(), blotter.NewCase{
		Priority:         req.Priority,
		IncidentType:     req.IncidentType,
		IncidentDate:     req.IncidentDate,
		IncidentTime:     req.IncidentTime,
		IncidentLocation: req.IncidentLocation,
		Description:      req.Description,
		Complainant:      req.Complainant.party(),
		Respondent:       req.Respondent.party(),
		FilingFee:        req.FilingFee,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	zap.S().Infow("case filed", "caseId", c.ID, "caseNumber", c.CaseNumber, "actorId", actorID(r))
	writeJSON(w, http.StatusCreated, toCaseResponse(c))
}

func (s *Server) handleGetCase(w http.ResponseWriter, r *http.Request) {
	c, err := s.caseService.GetCase(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCaseResponse(c))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	updates, err := s.caseService.History(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	items := make([]statusUpdateResponse, 0, len(updates))
	for _, u := range updates {
		items = append(items, toStatusUpdateResponse(u))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleSteps(w http.ResponseWriter, r *http.Request) {
	steps, err := s.caseService.Steps(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	items := make([]stepResponse, 0, len(steps))
	for _, st := range steps {
		items = append(items, stepResponse(st))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

type transitionRequest struct {
	ExpectedStatus  blotter.Status `json:"expectedStatus"`
	ExpectedVersion *int           `json:"expectedVersion"`
	blotter.Payload
}

func (s *Server) handleTransition(w http.ResponseWriter, r *http.Request) {
	var req transitionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	caseID := mux.Vars(r)["id"]
	c, err := s.caseService.ProposeTransition(r.Context(), blotter.TransitionRequest{
		CaseID:          caseID,
		ExpectedStatus:  blotter.Status(strings.ToUpper(string(req.ExpectedStatus))),
		ExpectedVersion: req.ExpectedVersion,
		ActorID:         actorID(r),
		Payload:         req.Payload,
	})
	if err != nil {
		zap.S().Infow("transition rejected", "caseId", caseID, "kind", blotter.ErrorKind(err), "error", err)
		writeError(w, r, err)
		return
	}
	zap.S().Infow("case moved", "caseId", c.ID, "status", c.Status, "actorId", actorID(r))
	writeJSON(w, http.StatusOK, toCaseResponse(c))
}

type paymentRequest struct {
	Amount *float64 `json:"amount"`
}

func (s *Server) handlePayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	c, err := s.caseService.ConfirmFilingFee(r.Context(), blotter.PaymentRequest{
		CaseID: mux.Vars(r)["id"],
		Amount: req.Amount,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	zap.S().Infow("filing fee confirmed", "caseId", c.ID, "amount", c.FilingFee, "actorId", actorID(r))
	writeJSON(w, http.StatusOK, toCaseResponse(c))
}

func (s *Server) handleListHearings(w http.ResponseWriter, r *http.Request) {
	if s.hearingService == nil {
		unavailable(w, "hearings")
		return
	}
	records, err := s.hearingService.ListForCase(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	items := make([]hearingResponse, 0, len(records))
	for _, h := range records {
		items = append(items, toHearingResponse(h))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleScheduleHearing(w http.ResponseWriter, r *http.Request) {
	if s.hearingService == nil {
		unavailable(w, "hearings")
		return
	}
	var req hearing.NewHearing
	if !decodeJSON(w, r, &req) {
		return
	}
	req.CaseID = mux.Vars(r)["id"]
	h, err := s.hearingService.Schedule(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toHearingResponse(h))
}

func (s *Server) handleUpdateHearing(w http.ResponseWriter, r *http.Request) {
	if s.hearingService == nil {
		unavailable(w, "hearings")
		return
	}
	var req hearing.Change
	if !decodeJSON(w, r, &req) {
		return
	}
	h, err := s.hearingService.Update(r.Context(), mux.Vars(r)["id"], req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toHearingResponse(h))
}

func (s *Server) handleSearchResidents(w http.ResponseWriter, r *http.Request) {
	if s.residentService == nil {
		unavailable(w, "residents")
		return
	}
	limit, err := intParam(r.URL.Query().Get("limit"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Detail: "limit must be a number"})
		return
	}
	found, err := s.residentService.Search(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	items := make([]residentResponse, 0, len(found))
	for _, res := range found {
		items = append(items, toResidentResponse(res))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleGetResident(w http.ResponseWriter, r *http.Request) {
	if s.residentService == nil {
		unavailable(w, "residents")
		return
	}
	res, err := s.residentService.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toResidentResponse(res))
}

func (s *Server) handleWorkflow(w http.ResponseWriter, _ *http.Request) {
	items := make([]statusInfoResponse, 0, len(blotter.AllStatuses))
	for _, st := range blotter.AllStatuses {
		info, _ := blotter.Describe(st)
		items = append(items, toStatusInfoResponse(info))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleWorkflowStatus(w http.ResponseWriter, r *http.Request) {
	status := blotter.Status(strings.ToUpper(mux.Vars(r)["status"]))
	info, ok := blotter.Describe(status)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not_found", Detail: "unknown status " + string(status)})
		return
	}
	writeJSON(w, http.StatusOK, toStatusInfoResponse(info))
}

func intParam(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
