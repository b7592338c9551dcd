package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/notes-api/internal/middleware"
	"github.com/iliyamo/notes-api/internal/service"
)

type NoteHandler struct {
	Notes NoteAPI
}

func NewNoteHandler(notes NoteAPI) *NoteHandler {
	return &NoteHandler{Notes: notes}
}

func (h *NoteHandler) Create(c echo.Context) error {
	var req service.CreateNoteInput
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	n, err := h.Notes.Create(ctx, req, middleware.CurrentUser(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, service.NewNoteView(n))
}

func (h *NoteHandler) List(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	notes, err := h.Notes.List(ctx, middleware.CurrentUser(c))
	if err != nil {
		return fail(c, err)
	}
	out := make([]service.NoteView, 0, len(notes))
	for _, n := range notes {
		out = append(out, service.NewNoteView(n))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *NoteHandler) Get(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badID(c)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	n, err := h.Notes.Get(ctx, id, middleware.CurrentUser(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, service.NewNoteView(n))
}

func (h *NoteHandler) Update(c echo.Context) error {
	var req service.UpdateNoteInput
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	n, err := h.Notes.Update(ctx, req, middleware.CurrentUser(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, service.NewNoteView(n))
}

func (h *NoteHandler) Delete(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badID(c)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.Notes.Delete(ctx, id, middleware.CurrentUser(c)); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "note deleted"})
}
