package handler

import (
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/notes-api/internal/middleware"
	"github.com/iliyamo/notes-api/internal/queue"
	"github.com/iliyamo/notes-api/internal/service"
)

// MailerHandler lets an admin push a test email through the queue and the
// configured provider.
type MailerHandler struct {
	Queue service.MailPublisher
	Link  string // included in the test mail, usually APP_PUBLIC_URL
}

func NewMailerHandler(q service.MailPublisher, link string) *MailerHandler {
	return &MailerHandler{Queue: q, Link: link}
}

type testMailReq struct {
	EmailTo string `json:"emailTo"`
}

func (r testMailReq) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.EmailTo, validation.Required, is.Email),
	)
}

func (h *MailerHandler) SendTest(c echo.Context) error {
	var req testMailReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	req.EmailTo = strings.TrimSpace(req.EmailTo)
	if err := req.Validate(); err != nil {
		return c.JSON(http.StatusNotAcceptable, echo.Map{"error": err.Error()})
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	mail := queue.NewMailRequest(queue.KindTest, req.EmailTo, "", h.Link)
	if err := h.Queue.Publish(ctx, mail); err != nil {
		return fail(c, err)
	}
	middleware.Logger(c).WithField("email", req.EmailTo).Info("test mail queued")
	return c.JSON(http.StatusAccepted, echo.Map{"message": "test email queued", "id": mail.ID})
}
