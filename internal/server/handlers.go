package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/taskgate/internal/evidence"
	"github.com/fyrsmithlabs/taskgate/internal/fix"
	"github.com/fyrsmithlabs/taskgate/internal/runstore"
	"github.com/fyrsmithlabs/taskgate/internal/sweep"
	"github.com/fyrsmithlabs/taskgate/internal/taskspec"
)

// RunResponse is the response body for POST /api/v1/runs.
type RunResponse struct {
	RunID       string           `json:"run_id"`
	Verdict     evidence.Verdict `json:"verdict"`
	FailedGate  string           `json:"failed_gate,omitempty"`
	TopFix      string           `json:"top_fix,omitempty"`
	TopFixPatch map[string]any   `json:"top_fix_patch,omitempty"`
	Evidence    *evidence.Packet `json:"evidence"`
}

// SweepRequest is the request body for POST /api/v1/sweeps. The base task
// may arrive as an embedded YAML string or as a structured document.
type SweepRequest struct {
	BaseYAML   string           `json:"base_yaml,omitempty"`
	BaseTask   json.RawMessage  `json:"base_task,omitempty"`
	Variations sweep.Variations `json:"variations"`
	N          int              `json:"n"`
	Seed       int64            `json:"seed"`
}

// SweepRunRef is one per-variant entry in the sweep response.
type SweepRunRef struct {
	RunID      string           `json:"run_id"`
	TaskID     string           `json:"task_id"`
	Verdict    evidence.Verdict `json:"verdict"`
	FailedGate string           `json:"failed_gate,omitempty"`
}

// SweepResponse is the response body for POST /api/v1/sweeps.
type SweepResponse struct {
	SweepID string        `json:"sweep_id"`
	N       int           `json:"n"`
	Seed    int64         `json:"seed"`
	Summary sweep.Summary `json:"summary"`
	Runs    []SweepRunRef `json:"runs"`
}

// handleCreateRun evaluates one TaskSpec document and persists the run.
// The body may be YAML or JSON; JSON is a YAML subset so one parser
// serves both.
func (s *Server) handleCreateRun(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read request body")
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "request body is required")
	}

	spec, err := taskspec.Parse(body)
	if err != nil {
		return specError(err)
	}

	packet := s.eval.Evaluate(spec)
	recordVerdict(string(packet.Verdict), packet.FailedGate)

	rec, err := s.persistRun(packet)
	if err != nil {
		s.logger.Error("failed to persist run", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to persist run")
	}

	return c.JSON(http.StatusOK, RunResponse{
		RunID:       rec.RunID,
		Verdict:     packet.Verdict,
		FailedGate:  packet.FailedGate,
		TopFix:      rec.TopFix,
		TopFixPatch: topFixPatch(packet),
		Evidence:    packet,
	})
}

func (s *Server) handleListRuns(c echo.Context) error {
	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = parsed
	}
	runs, err := s.store.ListRecent(limit)
	if err != nil {
		s.logger.Error("failed to list runs", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list runs")
	}
	if runs == nil {
		runs = []runstore.RunRecord{}
	}
	return c.JSON(http.StatusOK, runs)
}

func (s *Server) handleGetRun(c echo.Context) error {
	rec, err := s.store.GetRun(c.Param("id"))
	if errors.Is(err, runstore.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "run not found")
	}
	if err != nil {
		s.logger.Error("failed to get run", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get run")
	}
	return c.JSON(http.StatusOK, rec)
}

func (s *Server) handleGetEvidence(c echo.Context) error {
	rec, err := s.store.GetRun(c.Param("id"))
	if errors.Is(err, runstore.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "run not found")
	}
	if err != nil {
		s.logger.Error("failed to get run", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get run")
	}
	return c.JSONBlob(http.StatusOK, rec.Evidence)
}

// handleCreateSweep generates and evaluates n task variants and persists
// each as an individual run plus one sweep record.
func (s *Server) handleCreateSweep(c echo.Context) error {
	var req SweepRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	var baseDoc []byte
	switch {
	case req.BaseYAML != "":
		baseDoc = []byte(req.BaseYAML)
	case len(req.BaseTask) > 0:
		baseDoc = req.BaseTask
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "base_yaml or base_task is required")
	}

	base, err := taskspec.Parse(baseDoc)
	if err != nil {
		return specError(err)
	}

	if req.N > s.config.MaxSweepVariants {
		return echo.NewHTTPError(http.StatusBadRequest,
			"n exceeds the configured maximum of "+strconv.Itoa(s.config.MaxSweepVariants))
	}

	sweepReq := &sweep.Request{
		Base:       base,
		Variations: req.Variations,
		N:          req.N,
		Seed:       req.Seed,
	}
	result, err := s.sampler.Run(c.Request().Context(), sweepReq)
	if errors.Is(err, sweep.ErrInvalidRange) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err != nil {
		s.logger.Error("sweep failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "sweep failed")
	}
	SweepVariantsTotal.Add(float64(len(result.Packets)))

	refs := make([]SweepRunRef, 0, len(result.Packets))
	runIDs := make([]string, 0, len(result.Packets))
	for _, packet := range result.Packets {
		recordVerdict(string(packet.Verdict), packet.FailedGate)
		rec, err := s.persistRun(packet)
		if err != nil {
			s.logger.Error("failed to persist sweep run", zap.Error(err))
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to persist sweep run")
		}
		runIDs = append(runIDs, rec.RunID)
		refs = append(refs, SweepRunRef{
			RunID:      rec.RunID,
			TaskID:     packet.TaskID,
			Verdict:    packet.Verdict,
			FailedGate: packet.FailedGate,
		})
	}

	summaryJSON, err := json.Marshal(result.Summary)
	if err != nil {
		s.logger.Error("failed to marshal summary", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to persist sweep")
	}
	sweepID := taskspec.NewTaskID()
	if err := s.store.InsertSweep(runstore.SweepRecord{
		SweepID:   sweepID,
		CreatedAt: time.Now().UTC(),
		N:         req.N,
		Seed:      req.Seed,
		Summary:   summaryJSON,
		RunIDs:    runIDs,
	}); err != nil {
		s.logger.Error("failed to persist sweep", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to persist sweep")
	}

	return c.JSON(http.StatusOK, SweepResponse{
		SweepID: sweepID,
		N:       req.N,
		Seed:    req.Seed,
		Summary: result.Summary,
		Runs:    refs,
	})
}

// SweepDetail is the response body for GET /api/v1/sweeps/:id.
type SweepDetail struct {
	SweepID   string          `json:"sweep_id"`
	CreatedAt time.Time       `json:"created_at"`
	N         int             `json:"n"`
	Seed      int64           `json:"seed"`
	Summary   json.RawMessage `json:"summary"`
	RunIDs    []string        `json:"run_ids"`
}

func (s *Server) handleGetSweep(c echo.Context) error {
	rec, err := s.store.GetSweep(c.Param("id"))
	if errors.Is(err, runstore.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "sweep not found")
	}
	if err != nil {
		s.logger.Error("failed to get sweep", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get sweep")
	}
	return c.JSON(http.StatusOK, SweepDetail{
		SweepID:   rec.SweepID,
		CreatedAt: rec.CreatedAt,
		N:         rec.N,
		Seed:      rec.Seed,
		Summary:   json.RawMessage(rec.Summary),
		RunIDs:    rec.RunIDs,
	})
}

// persistRun stores one packet under a fresh run id.
func (s *Server) persistRun(packet *evidence.Packet) (*runstore.RunRecord, error) {
	evidenceJSON, err := json.Marshal(packet)
	if err != nil {
		return nil, err
	}
	rec := runstore.RunRecord{
		RunID:      taskspec.NewTaskID(),
		TaskID:     packet.TaskID,
		CreatedAt:  time.Now().UTC(),
		Verdict:    string(packet.Verdict),
		FailedGate: packet.FailedGate,
		Evidence:   evidenceJSON,
	}
	if top := packet.TopFix(); top != nil {
		rec.TopFix = string(top.Type)
	}
	if err := s.store.InsertRun(rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// topFixPatch mirrors the best-ranked fix's proposed coordinates in a
// compact shape UI clients can apply directly.
func topFixPatch(packet *evidence.Packet) map[string]any {
	top := packet.TopFix()
	if top == nil || top.ProposedPatch == nil {
		return nil
	}
	switch top.Type {
	case fix.KindMoveTarget:
		if xyz, ok := top.ProposedPatch["projected_target_xyz"]; ok {
			return map[string]any{"kind": string(top.Type), "new_xyz": xyz}
		}
	case fix.KindMoveBase:
		if xyz, ok := top.ProposedPatch["suggested_base_xyz"]; ok {
			return map[string]any{"kind": string(top.Type), "new_xyz": xyz}
		}
	}
	return nil
}

// specError maps parse and validation failures onto HTTP statuses:
// unreadable documents are 400s, schema and semantic violations 422s.
func specError(err error) error {
	var schemaErr *taskspec.SchemaError
	if errors.As(err, &schemaErr) {
		if schemaErr.Field == "document" {
			return echo.NewHTTPError(http.StatusBadRequest, schemaErr.Error())
		}
		return echo.NewHTTPError(http.StatusUnprocessableEntity, schemaErr.Error())
	}
	var semanticErr *taskspec.SemanticError
	if errors.As(err, &semanticErr) {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, semanticErr.Error())
	}
	return echo.NewHTTPError(http.StatusBadRequest, err.Error())
}
