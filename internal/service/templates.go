package service

import (
	"fmt"

	"newsdesk/internal/domain"
)

const (
	titleNewSubmission = "Nueva Noticia Pendiente"
	titlePublished     = "Noticia Publicada"
	titleStatusChanged = "Estado Cambiado"
)

// render builds an unsaved notification from the fixed per-type template.
func render(req domain.NotificationRequest) (*domain.Notification, error) {
	if !req.Recipient.Valid() {
		return nil, fmt.Errorf("%w: invalid recipient", domain.ErrInvalidInput)
	}
	if req.NewsID == "" {
		return nil, fmt.Errorf("%w: missing news id", domain.ErrInvalidInput)
	}

	n := &domain.Notification{
		Type:          req.Type,
		Recipient:     req.Recipient,
		RelatedNewsID: req.NewsID,
	}

	switch req.Type {
	case domain.NotificationNewSubmission:
		n.Title = titleNewSubmission
		n.Message = fmt.Sprintf("Nueva noticia pendiente de revisión: \"%s\"", req.NewsTitle)
	case domain.NotificationPublished:
		n.Title = titlePublished
		n.Message = fmt.Sprintf("Tu noticia \"%s\" ha sido publicada", req.NewsTitle)
	case domain.NotificationStatusChanged:
		if req.Change == nil || !req.Change.NewStatus.Valid() {
			return nil, fmt.Errorf("%w: status change without new status", domain.ErrInvalidInput)
		}
		change := *req.Change
		n.Title = titleStatusChanged
		n.Message = fmt.Sprintf("La noticia \"%s\" ha sido %s", req.NewsTitle, change.NewStatus.Label())
		n.Metadata = &change
	default:
		return nil, fmt.Errorf("%w: unknown notification type %q", domain.ErrInvalidInput, req.Type)
	}

	return n, nil
}
