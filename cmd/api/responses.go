package main

import (
	"time"

	"github.com/nerraj-droid/bisig-final-sub001/auth"
	"github.com/nerraj-droid/bisig-final-sub001/blotter"
	"github.com/nerraj-droid/bisig-final-sub001/hearing"
	"github.com/nerraj-droid/bisig-final-sub001/resident"
)

type partyResponse struct {
	ResidentID *string `json:"residentId,omitempty"`
	Name       string  `json:"name"`
	Address    string  `json:"address,omitempty"`
	Contact    string  `json:"contact,omitempty"`
}

type caseResponse struct {
	ID                    string           `json:"id"`
	CaseNumber            string           `json:"caseNumber"`
	Status                blotter.Status   `json:"status"`
	Priority              string           `json:"priority"`
	IncidentType          string           `json:"incidentType"`
	IncidentDate          string           `json:"incidentDate"`
	IncidentTime          string           `json:"incidentTime,omitempty"`
	IncidentLocation      string           `json:"incidentLocation,omitempty"`
	Description           string           `json:"description,omitempty"`
	Complainant           partyResponse    `json:"complainant"`
	Respondent            partyResponse    `json:"respondent"`
	FilingFee             float64          `json:"filingFee"`
	FilingFeePaid         bool             `json:"filingFeePaid"`
	FilingFeePaidAt       *string          `json:"filingFeePaidAt,omitempty"`
	DocketDate            *string          `json:"docketDate,omitempty"`
	SummonDate            *string          `json:"summonDate,omitempty"`
	MediationStartDate    *string          `json:"mediationStartDate,omitempty"`
	MediationEndDate      *string          `json:"mediationEndDate,omitempty"`
	MediationOutcome      *string          `json:"mediationOutcome,omitempty"`
	ConciliationStartDate *string          `json:"conciliationStartDate,omitempty"`
	ConciliationEndDate   *string          `json:"conciliationEndDate,omitempty"`
	ConciliationOutcome   *string          `json:"conciliationOutcome,omitempty"`
	ExtensionDate         *string          `json:"extensionDate,omitempty"`
	CertificationDate     *string          `json:"certificationDate,omitempty"`
	ResolutionMethod      *string          `json:"resolutionMethod,omitempty"`
	EscalatedToEnt        *string          `json:"escalatedToEnt,omitempty"`
	AllowedNext           []blotter.Status `json:"allowedNext"`
	Version               int              `json:"version"`
	CreatedAt             string           `json:"createdAt"`
	UpdatedAt             string           `json:"updatedAt"`
}

func toCaseResponse(c blotter.Case) caseResponse {
	return caseResponse{
		ID:                    c.ID,
		CaseNumber:            c.CaseNumber,
		Status:                c.Status,
		Priority:              string(c.Priority),
		IncidentType:          c.IncidentType,
		IncidentDate:          c.IncidentDate.Format(time.DateOnly),
		IncidentTime:          c.IncidentTime,
		IncidentLocation:      c.IncidentLocation,
		Description:           c.Description,
		Complainant:           toPartyResponse(c.Complainant),
		Respondent:            toPartyResponse(c.Respondent),
		FilingFee:             c.FilingFee,
		FilingFeePaid:         c.FilingFeePaid,
		FilingFeePaidAt:       timestamp(c.FilingFeePaidAt),
		DocketDate:            date(c.DocketDate),
		SummonDate:            date(c.SummonDate),
		MediationStartDate:    date(c.MediationStartDate),
		MediationEndDate:      date(c.MediationEndDate),
		MediationOutcome:      str(c.MediationOutcome),
		ConciliationStartDate: date(c.ConciliationStartDate),
		ConciliationEndDate:   date(c.ConciliationEndDate),
		ConciliationOutcome:   str(c.ConciliationOutcome),
		ExtensionDate:         date(c.ExtensionDate),
		CertificationDate:     date(c.CertificationDate),
		ResolutionMethod:      str(c.ResolutionMethod),
		EscalatedToEnt:        c.EscalatedTo,
		AllowedNext:           blotter.AllowedNext(c.Status),
		Version:               c.Version,
		CreatedAt:             c.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:             c.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toPartyResponse(p blotter.Party) partyResponse {
	return partyResponse{ResidentID: p.ResidentID, Name: p.Name, Address: p.Address, Contact: p.Contact}
}

type statusUpdateResponse struct {
	ID         string         `json:"id"`
	Seq        int            `json:"seq"`
	FromStatus blotter.Status `json:"fromStatus"`
	Status     blotter.Status `json:"status"`
	ActorID    string         `json:"actorId,omitempty"`
	Remarks    string         `json:"remarks,omitempty"`
	Fields     blotter.Fields `json:"fields"`
	CreatedAt  string         `json:"createdAt"`
}

func toStatusUpdateResponse(u blotter.StatusUpdate) statusUpdateResponse {
	return statusUpdateResponse{
		ID:         u.ID,
		Seq:        u.Seq,
		FromStatus: u.FromStatus,
		Status:     u.Status,
		ActorID:    u.ActorID,
		Remarks:    u.Remarks,
		Fields:     u.Fields,
		CreatedAt:  u.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

type stepResponse struct {
	Index     int            `json:"index"`
	Label     string         `json:"label"`
	Status    blotter.Status `json:"status"`
	Completed bool           `json:"completed"`
	Current   bool           `json:"current"`
	Skipped   bool           `json:"skipped"`
}

type targetResponse struct {
	Status   blotter.Status  `json:"status"`
	Via      string          `json:"via,omitempty"`
	Required []blotter.Field `json:"required"`
	Optional []blotter.Field `json:"optional"`
}

type statusInfoResponse struct {
	Status        blotter.Status   `json:"status"`
	AllowedNext   []blotter.Status `json:"allowedNext"`
	DecisionPoint bool             `json:"decisionPoint"`
	OutcomeField  blotter.Field    `json:"outcomeField,omitempty"`
	Terminal      bool             `json:"terminal"`
	Legacy        bool             `json:"legacy"`
	StepIndex     int              `json:"stepIndex"`
	Targets       []targetResponse `json:"targets"`
}

func toStatusInfoResponse(info blotter.StatusInfo) statusInfoResponse {
	resp := statusInfoResponse{
		Status:        info.Status,
		AllowedNext:   info.AllowedNext,
		DecisionPoint: info.DecisionPoint,
		OutcomeField:  info.OutcomeField,
		Terminal:      info.Terminal,
		Legacy:        info.Legacy,
		StepIndex:     blotter.StepIndex(info.Status),
		Targets:       make([]targetResponse, 0, len(info.Targets)),
	}
	for _, t := range info.Targets {
		resp.Targets = append(resp.Targets, targetResponse{
			Status:   t.Status,
			Via:      string(t.Via),
			Required: nonNil(t.Required),
			Optional: nonNil(t.Optional),
		})
	}
	return resp
}

type hearingResponse struct {
	ID        string         `json:"id"`
	CaseID    string         `json:"caseId"`
	Date      string         `json:"date"`
	Time      string         `json:"time,omitempty"`
	Location  string         `json:"location,omitempty"`
	Status    hearing.Status `json:"status"`
	Notes     string         `json:"notes,omitempty"`
	UpdatedAt string         `json:"updatedAt"`
}

func toHearingResponse(h hearing.Record) hearingResponse {
	return hearingResponse{
		ID:        h.ID,
		CaseID:    h.CaseID,
		Date:      h.Date.Format(time.DateOnly),
		Time:      h.Time,
		Location:  h.Location,
		Status:    h.Status,
		Notes:     h.Notes,
		UpdatedAt: h.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

type residentResponse struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Address  string `json:"address,omitempty"`
	Contact  string `json:"contact,omitempty"`
}

func toResidentResponse(r resident.Resident) residentResponse {
	return residentResponse{ID: r.ID, FullName: r.FullName(), Address: r.FullAddress(), Contact: r.Contact}
}

type officialResponse struct {
	ID       string    `json:"id"`
	Email    string    `json:"email"`
	FullName string    `json:"full_name"`
	Role     auth.Role `json:"role"`
}

func toOfficialResponse(o auth.Official) officialResponse {
	return officialResponse{ID: o.ID, Email: o.Email, FullName: o.FullName, Role: o.Role}
}

func date(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.DateOnly)
	return &s
}

func timestamp(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

func str[T ~string](v *T) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
