package services

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/annapurna-pos/backend/models"
	"github.com/annapurna-pos/backend/utils"
)

// RenderPayload is everything the external document renderer needs to lay
// out a bill: the committed invoice, its lines, and the letterhead.
type RenderPayload struct {
	Invoice      models.Invoice           `json:"invoice"`
	Items        []models.InvoiceItem     `json:"items"`
	Restaurant   models.Restaurant        `json:"restaurant"`
	Profile      models.RestaurantProfile `json:"profile"`
	DisplayTotal string                   `json:"display_total"`
}

// DocumentRenderer turns a committed invoice into an opaque artifact
// reference (e.g. a PDF URL). Invoked fire-and-forget after the invoice row
// is committed; a renderer failure never rolls the invoice back.
type DocumentRenderer interface {
	Render(payload RenderPayload) (string, error)
}

// TicketPrinter reprints the kitchen ticket after an order edit.
type TicketPrinter interface {
	PrintTicket(order models.Order) error
}

// LogRenderer is the in-process stand-in used until a real renderer is
// configured. It logs the payload and hands back a synthetic artifact ref.
type LogRenderer struct{}

func (LogRenderer) Render(payload RenderPayload) (string, error) {
	ref := fmt.Sprintf("artifact://invoices/%s.pdf", uuid.NewString())
	utils.InfoLogger.Printf("rendered invoice %s (%s) -> %s",
		payload.Invoice.InvoiceNo, payload.DisplayTotal, ref)
	return ref, nil
}

// LogTicketPrinter logs instead of driving a thermal printer.
type LogTicketPrinter struct{}

func (LogTicketPrinter) PrintTicket(order models.Order) error {
	utils.InfoLogger.Printf("kitchen ticket reprint for order %d (%d items)",
		order.ID, len(order.LineItems))
	return nil
}
