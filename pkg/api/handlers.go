package api

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/rfpstudio/rfpflow/pkg/model"
	"github.com/rfpstudio/rfpflow/pkg/usecase/rfp"
	"github.com/rfpstudio/rfpflow/pkg/workflow"
)

type createRFPRequest struct {
	Title         string   `json:"title"       validate:"required"`
	ClientName    string   `json:"client_name" validate:"required"`
	ClientContact string   `json:"client_contact"`
	ReceivedDate  string   `json:"received_date"`
	DueDate       string   `json:"due_date"`
	SalesTeam     []string `json:"sales_team"`
	Industry      string   `json:"industry"`
	RFPSize       string   `json:"rfp_size"`
	Tags          []string `json:"tags"`
}

type advanceRequest struct {
	To    string `json:"to" validate:"required"`
	Actor string `json:"actor"`
	Note  string `json:"note"`
}

type stepResponse struct {
	Agent  string       `json:"agent"`
	From   model.Status `json:"from"`
	To     model.Status `json:"to"`
	Events []string     `json:"events,omitempty"`
}

type runResponse struct {
	RFP   *model.RFP     `json:"rfp"`
	Steps []stepResponse `json:"steps"`
	Halt  string         `json:"halt,omitempty"`
}

func newRunResponse(result *workflow.RunResult) *runResponse {
	resp := &runResponse{
		RFP:   result.RFP,
		Steps: make([]stepResponse, 0, len(result.Steps)),
		Halt:  result.Halt,
	}
	for _, s := range result.Steps {
		resp.Steps = append(resp.Steps, stepResponse{
			Agent:  s.Agent,
			From:   s.From,
			To:     s.To,
			Events: s.Events,
		})
	}
	return resp
}

func (a *API) health(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (a *API) createRFP(c fiber.Ctx) error {
	var req createRFPRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "invalid request body: "+err.Error())
	}
	if err := a.validate.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	created, err := a.usecase.Create(c.Context(), rfp.CreateOptions{
		Title:         req.Title,
		ClientName:    req.ClientName,
		ClientContact: req.ClientContact,
		ReceivedDate:  req.ReceivedDate,
		DueDate:       req.DueDate,
		SalesTeam:     req.SalesTeam,
		Industry:      req.Industry,
		RFPSize:       req.RFPSize,
		Tags:          req.Tags,
	})
	if err != nil {
		return handleWorkflowError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (a *API) listRFPs(c fiber.Ctx) error {
	opts := rfp.ListOptions{Limit: 20}

	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return badRequest(c, "invalid limit")
		}
		opts.Limit = limit
	}
	if offsetStr := c.Query("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil {
			return badRequest(c, "invalid offset")
		}
		opts.Offset = offset
	}
	if statusStr := c.Query("status"); statusStr != "" {
		status := model.Status(strings.ToUpper(statusStr))
		if err := status.Validate(); err != nil {
			return badRequest(c, "invalid status filter")
		}
		opts.Status = status
	}

	rfps, err := a.usecase.List(c.Context(), opts)
	if err != nil {
		return handleWorkflowError(c, err)
	}

	return c.JSON(fiber.Map{
		"rfps":  rfps,
		"count": len(rfps),
	})
}

func (a *API) getRFP(c fiber.Ctx) error {
	result, err := a.usecase.Show(c.Context(), model.RFPID(c.Params("id")))
	if err != nil {
		return handleWorkflowError(c, err)
	}

	return c.JSON(fiber.Map{
		"rfp":   result.RFP,
		"tasks": result.Tasks,
	})
}

func (a *API) runPipeline(c fiber.Ctx) error {
	var payload map[string]any
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&payload); err != nil {
			return badRequest(c, "invalid payload: "+err.Error())
		}
	}

	result, err := a.usecase.Run(c.Context(), model.RFPID(c.Params("id")), payload)
	if err != nil {
		return handleWorkflowError(c, err)
	}

	return c.JSON(newRunResponse(result))
}

func (a *API) runAgent(c fiber.Ctx) error {
	var payload map[string]any
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&payload); err != nil {
			return badRequest(c, "invalid payload: "+err.Error())
		}
	}

	result, err := a.usecase.RunAgent(c.Context(), c.Params("name"), model.RFPID(c.Params("id")), payload)
	if err != nil {
		return handleWorkflowError(c, err)
	}

	return c.JSON(newRunResponse(result))
}

func (a *API) advance(c fiber.Ctx) error {
	var req advanceRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "invalid request body: "+err.Error())
	}
	if err := a.validate.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	target := model.Status(strings.ToUpper(req.To))
	if err := target.Validate(); err != nil {
		return badRequest(c, "unknown target state: "+req.To)
	}

	advanced, err := a.usecase.Advance(c.Context(), rfp.AdvanceOptions{
		ID:    model.RFPID(c.Params("id")),
		To:    target,
		Actor: req.Actor,
		Note:  req.Note,
	})
	if err != nil {
		return handleWorkflowError(c, err)
	}

	return c.JSON(advanced)
}

func (a *API) similar(c fiber.Ctx) error {
	opts := rfp.SimilarOptions{
		ID:    model.RFPID(c.Params("id")),
		Limit: 5,
	}
	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return badRequest(c, "invalid limit")
		}
		opts.Limit = limit
	}

	matches, err := a.usecase.Similar(c.Context(), opts)
	if err != nil {
		return handleWorkflowError(c, err)
	}

	out := make([]fiber.Map, 0, len(matches))
	for _, m := range matches {
		out = append(out, fiber.Map{
			"rfp":   m.RFP,
			"score": m.Score,
		})
	}
	return c.JSON(fiber.Map{"matches": out})
}
