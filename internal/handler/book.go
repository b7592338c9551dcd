package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/notes-api/internal/middleware"
	"github.com/iliyamo/notes-api/internal/service"
)

// BookHandler serves /book.  Every call is scoped to the authenticated
// user; admins see everyone's books.
type BookHandler struct {
	Books BookAPI
}

func NewBookHandler(books BookAPI) *BookHandler {
	return &BookHandler{Books: books}
}

func (h *BookHandler) Create(c echo.Context) error {
	var req service.CreateBookInput
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	b, err := h.Books.Create(ctx, req, middleware.CurrentUser(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, service.NewBookView(b))
}

func (h *BookHandler) List(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	books, err := h.Books.List(ctx, middleware.CurrentUser(c))
	if err != nil {
		return fail(c, err)
	}
	out := make([]service.BookView, 0, len(books))
	for _, b := range books {
		out = append(out, service.NewBookView(b))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *BookHandler) Get(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badID(c)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	b, err := h.Books.Get(ctx, id, middleware.CurrentUser(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, service.NewBookView(b))
}

func (h *BookHandler) Update(c echo.Context) error {
	var req service.UpdateBookInput
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	b, err := h.Books.Update(ctx, req, middleware.CurrentUser(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, service.NewBookView(b))
}

func (h *BookHandler) Delete(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badID(c)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.Books.Delete(ctx, id, middleware.CurrentUser(c)); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "book deleted"})
}
