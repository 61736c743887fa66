package api

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"newsdesk/internal/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// bind parses the JSON body into dst and validates it.
func bind(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return fmt.Errorf("%w: malformed body: %v", domain.ErrInvalidInput, err)
	}
	return validate.Struct(dst)
}

type newsRequest struct {
	Title    string  `json:"title" validate:"required,max=300"`
	Subtitle string  `json:"subtitle" validate:"max=500"`
	Content  string  `json:"content"`
	Category string  `json:"category" validate:"required,max=100"`
	ImageURL *string `json:"imageUrl" validate:"omitempty,url"`
}

func (r newsRequest) content() domain.NewsContent {
	return domain.NewsContent{
		Title:    r.Title,
		Subtitle: r.Subtitle,
		Content:  r.Content,
		Category: r.Category,
		ImageURL: r.ImageURL,
	}
}

type transitionRequest struct {
	Status string `json:"status" validate:"required"`
}

type categoryRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
}

type transitionOption struct {
	Status domain.Status `json:"status"`
	Label  string        `json:"label"`
}

type transitionsResponse struct {
	NewsID    string             `json:"newsId"`
	Available []transitionOption `json:"available"`
}

func newTransitionsResponse(newsID string, statuses []domain.Status) transitionsResponse {
	resp := transitionsResponse{NewsID: newsID, Available: make([]transitionOption, 0, len(statuses))}
	for _, st := range statuses {
		resp.Available = append(resp.Available, transitionOption{Status: st, Label: st.Label()})
	}
	return resp
}

type notificationResponse struct {
	ID            string               `json:"id"`
	Type          string               `json:"type"`
	Title         string               `json:"title"`
	Message       string               `json:"message"`
	Recipient     string               `json:"recipient"`
	RelatedNewsID string               `json:"relatedNewsId,omitempty"`
	Read          bool                 `json:"read"`
	Metadata      *domain.StatusChange `json:"metadata,omitempty"`
	CreatedAt     time.Time            `json:"createdAt"`
}

func newNotificationResponse(n domain.Notification) notificationResponse {
	return notificationResponse{
		ID:            n.ID,
		Type:          string(n.Type),
		Title:         n.Title,
		Message:       n.Message,
		Recipient:     n.Recipient.Key(),
		RelatedNewsID: n.RelatedNewsID,
		Read:          n.Read,
		Metadata:      n.Metadata,
		CreatedAt:     n.CreatedAt,
	}
}
