package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/Yvan2XEro/calendar-sync-sub002/core/errors"
	"github.com/Yvan2XEro/calendar-sync-sub002/modules/sync/dto"
)

type stubSyncService struct {
	gotOpts dto.RunOptions
	result  *dto.SyncResult
	err     *errors.AppError
}

func (s *stubSyncService) Run(ctx context.Context, opts dto.RunOptions) (*dto.SyncResult, *errors.AppError) {
	s.gotOpts = opts
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func runRequest(t *testing.T, svc *stubSyncService, query string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/internal/sync/run"+query, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := NewSyncController(svc).Run(c)
	if err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestRunParsesQueryParams(t *testing.T) {
	svc := &stubSyncService{result: &dto.SyncResult{}}

	rec := runRequest(t, svc, "?limit=25&lookaheadHours=48")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if svc.gotOpts.Limit != 25 || svc.gotOpts.LookaheadHours != 48 {
		t.Fatalf("opts = %+v", svc.gotOpts)
	}
}

func TestRunTruncatesFractionalParams(t *testing.T) {
	svc := &stubSyncService{result: &dto.SyncResult{}}

	rec := runRequest(t, svc, "?limit=10.9")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if svc.gotOpts.Limit != 10 {
		t.Fatalf("limit = %d, want 10", svc.gotOpts.Limit)
	}
}

func TestRunRejectsNonFiniteParams(t *testing.T) {
	for _, query := range []string{"?limit=NaN", "?lookaheadHours=Inf", "?limit=abc"} {
		svc := &stubSyncService{result: &dto.SyncResult{}}
		rec := runRequest(t, svc, query)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: status = %d, want 400", query, rec.Code)
		}
	}
}

func TestRunReturnsSummaryJSON(t *testing.T) {
	svc := &stubSyncService{result: &dto.SyncResult{
		Summary: dto.SyncSummary{AccountsProcessed: 1, AccountsSucceeded: 1, EventsConsidered: 2, Created: 2},
		Errors:  []dto.SyncError{},
	}}

	rec := runRequest(t, svc, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var envelope struct {
		Data dto.SyncResult `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatal(err)
	}
	if envelope.Data.Summary.Created != 2 {
		t.Fatalf("summary = %+v", envelope.Data.Summary)
	}
}

func TestRunSurfacesEngineFailure(t *testing.T) {
	svc := &stubSyncService{err: errors.NewAppError(errors.ErrInternalServer, "events table unreachable", nil)}

	rec := runRequest(t, svc, "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}
