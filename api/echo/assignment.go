package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/kazi/core/assignment"
	aisvc "github.com/trezcool/kazi/services/summarizer"
	syncsvc "github.com/trezcool/kazi/services/sync"
)

type (
	assignmentApi struct {
		svc        *assignment.Service
		syncer     *syncsvc.Runner
		summarizer *aisvc.Service
		validate   *validator.Validate
	}

	assignmentsResponse struct {
		Assignments []assignment.Assignment `json:"assignments"`
	}

	syncResponse struct {
		OK      bool   `json:"ok"`
		Message string `json:"message"`
	}

	summarizeResponse struct {
		OK     bool   `json:"ok"`
		Title  string `json:"title"`
		Course string `json:"course"`
		aisvc.Summary
	}
)

func registerAssignmentAPI(g *echo.Group, opts *Options) {
	api := assignmentApi{
		svc:        opts.AssignmentSvc,
		syncer:     opts.Syncer,
		summarizer: opts.Summarizer,
		validate:   opts.Validate,
	}

	g.GET("/assignments", api.list)
	g.POST("/assignments", api.create)
	g.PATCH("/assignments/:id", api.update)
	g.DELETE("/assignments/:id", api.destroy)

	g.POST("/sync", api.sync)
	g.GET("/sync-status", api.syncStatus)

	g.POST("/summarize/:id", api.summarize)
}

// Handlers

func (api *assignmentApi) list(ctx echo.Context) error {
	recs, err := api.svc.List()
	if err != nil {
		return errors.Wrap(err, "listing assignments")
	}
	if recs == nil {
		recs = []assignment.Assignment{}
	}
	return ctx.JSON(http.StatusOK, assignmentsResponse{Assignments: recs})
}

func (api *assignmentApi) create(ctx echo.Context) error {
	var data assignment.NewAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	rec, err := api.svc.Create(data)
	if err != nil {
		return errors.Wrap(err, "creating assignment")
	}
	return ctx.JSON(http.StatusCreated, rec)
}

func (api *assignmentApi) update(ctx echo.Context) error {
	var data assignment.UpdateAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAssignment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	rec, err := api.svc.SetCompleted(ctx.Param("id"), *data.Completed)
	if err != nil {
		if errors.Cause(err) == assignment.ErrNotFound {
			return err
		}
		return errors.Wrap(err, "updating assignment")
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *assignmentApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting assignment")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *assignmentApi) sync(ctx echo.Context) error {
	if !api.syncer.Start() {
		return ctx.JSON(http.StatusOK, syncResponse{OK: true, Message: "Sync already running"})
	}
	return ctx.JSON(http.StatusOK, syncResponse{OK: true, Message: "Sync started"})
}

func (api *assignmentApi) syncStatus(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.syncer.Status())
}

func (api *assignmentApi) summarize(ctx echo.Context) error {
	rec, err := api.svc.Get(ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == assignment.ErrNotFound {
			return err
		}
		return errors.Wrap(err, "getting assignment")
	}

	summary, err := api.summarizer.Summarize(ctx.Request().Context(), rec)
	if err != nil {
		if errors.Cause(err) == aisvc.ErrNoAPIKey {
			return echo.NewHTTPError(http.StatusBadRequest, aisvc.ErrNoAPIKey.Error())
		}
		// surface the upstream failure so the UI can show it
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return ctx.JSON(http.StatusOK, summarizeResponse{
		OK:      true,
		Title:   rec.Title,
		Course:  rec.Course,
		Summary: summary,
	})
}
