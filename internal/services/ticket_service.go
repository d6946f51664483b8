package services

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"busbooking/internal/domain/models"
	"busbooking/internal/utils"

	"github.com/phpdave11/gofpdf"
)

// TicketService renders the e-ticket of a committed booking.
type TicketService struct {
	RequestID string
}

func (s TicketService) GenerateETicket(b models.Booking) ([]byte, string, error) {
	if b.ID == "" {
		return nil, "", fmt.Errorf("booking id required")
	}
	utils.LogEvent(s.RequestID, "docs", "generate_eticket", "booking_id="+b.ID)
	return buildETicketPDF(b)
}

func buildETicketPDF(b models.Booking) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("E-Ticket", false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "E-TICKET")
	pdf.Ln(12)

	t := b.Trip
	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Booking Ref    : %s", utils.Fallback(b.Reference, "-")),
		fmt.Sprintf("Status         : %s", strings.ToUpper(string(b.Status))),
		fmt.Sprintf("Route          : %s -> %s", utils.Fallback(t.Origin, "-"), utils.Fallback(t.Destination, "-")),
		fmt.Sprintf("Date           : %s", utils.Fallback(t.Date, "-")),
		fmt.Sprintf("Departure      : %s", utils.Fallback(t.DepartureTime, "-")),
		fmt.Sprintf("Arrival        : %s", utils.Fallback(t.ArrivalTime, "-")),
		fmt.Sprintf("Operator       : %s", utils.Fallback(t.Operator, "-")),
		fmt.Sprintf("Bus Type       : %s", utils.Fallback(t.BusType, "-")),
		fmt.Sprintf("Seats          : %s", seatList(b.Seats)),
		fmt.Sprintf("Payment Method : %s", utils.Fallback(b.PaymentMethod, "-")),
		fmt.Sprintf("Total Paid     : %s", utils.FormatBirr(b.TotalPrice)),
	}
	for _, s := range lines {
		pdf.Cell(0, 7, s)
		pdf.Ln(7)
	}

	if len(b.Seats) > 0 {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(30, 7, "Seat", "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 7, "Class", "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 7, "Position", "1", 1, "C", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		for _, seat := range b.Seats {
			pdf.CellFormat(30, 7, strconv.Itoa(seat.Number), "1", 0, "C", false, 0, "")
			pdf.CellFormat(40, 7, string(seat.Class), "1", 0, "C", false, 0, "")
			pdf.CellFormat(40, 7, string(seat.Position), "1", 1, "C", false, 0, "")
		}
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "Please arrive at the station 30 minutes before departure and show this ticket when boarding.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}
	filename := fmt.Sprintf("ETICKET_%s.pdf", utils.SafeFilenamePart(utils.Fallback(b.Reference, b.ID)))
	return buf.Bytes(), filename, nil
}

func seatList(seats []models.Seat) string {
	if len(seats) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(seats))
	for _, s := range seats {
		parts = append(parts, strconv.Itoa(s.Number))
	}
	return strings.Join(parts, ", ")
}
