package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/tabsettle-api/internal/domain/entity"
	"github.com/sangkips/tabsettle-api/internal/domain/enum"
	"github.com/sangkips/tabsettle-api/internal/domain/repository"
	"github.com/sangkips/tabsettle-api/pkg/money"
	"github.com/sangkips/tabsettle-api/pkg/printer"
)

const (
	receiptTimeFormat = "2006-01-02 15:04"
	ticketTimeFormat  = "15:04"
)

// PrinterService renders receipts, kitchen tickets and drawer reports and
// sends them to the thermal printer.
type PrinterService struct {
	printer     printer.Printer
	orderRepo   repository.OrderRepository
	tenantRepo  repository.TenantRepository
	printerType string
	charWidth   int
}

// NewPrinterService creates a new printer service.
func NewPrinterService(
	p printer.Printer,
	orderRepo repository.OrderRepository,
	tenantRepo repository.TenantRepository,
	printerType string,
	charWidth int,
) *PrinterService {
	if p == nil {
		p = printer.NewNullPrinter()
	}
	return &PrinterService{
		printer:     p,
		orderRepo:   orderRepo,
		tenantRepo:  tenantRepo,
		printerType: printerType,
		charWidth:   charWidth,
	}
}

// PrinterStatus returns the current printer status information.
type PrinterStatus struct {
	Configured bool   `json:"configured"`
	Connected  bool   `json:"connected"`
	Type       string `json:"type"`
	CharWidth  int    `json:"char_width"`
}

// GetStatus returns printer connection status.
func (s *PrinterService) GetStatus() *PrinterStatus {
	return &PrinterStatus{
		Configured: s.printerType != "none" && s.printerType != "",
		Connected:  s.printer.IsConnected(),
		Type:       s.printerType,
		CharWidth:  s.charWidth,
	}
}

// TestPrint sends a sample receipt to the printer.
// The receipt is returned so the handler can show it when printing is disabled.
func (s *PrinterService) TestPrint(ctx context.Context) (*entity.Receipt, error) {
	receipt := &entity.Receipt{
		Header:   entity.ReceiptHeader{StoreName: "PRINTER TEST"},
		OrderNo:  "TEST-001",
		Date:     time.Now().Format(receiptTimeFormat),
		Items:    []entity.ReceiptItem{{Name: "Test Item", Quantity: 2, UnitPrice: "5.00", Total: "10.00"}},
		SubTotal: "10.00",
		TaxLabel: "VAT",
		Tax:      "0.00",
		Total:    "10.00",
		Paid:     "10.00",
		Due:      "0.00",
	}

	if err := s.printer.Print(ctx, FormatReceipt(receipt, s.charWidth)); err != nil {
		return receipt, fmt.Errorf("test print failed: %w", err)
	}
	return receipt, nil
}

// PrintOrderReceipt loads an order and prints its customer receipt.
func (s *PrinterService) PrintOrderReceipt(ctx context.Context, orderID uuid.UUID) (*entity.Receipt, error) {
	tenant, err := loadTenant(ctx, s.tenantRepo)
	if err != nil {
		return nil, err
	}
	order, err := getOrder(ctx, s.orderRepo, orderID, false)
	if err != nil {
		return nil, err
	}

	receipt := BuildReceipt(tenant, order)
	if err := s.printer.Print(ctx, FormatReceipt(receipt, s.charWidth)); err != nil {
		log.Printf("Printer error (order %s): %v", order.OrderNumber, err)
		return receipt, fmt.Errorf("failed to print receipt: %w", err)
	}
	return receipt, nil
}

// PrintKitchenTicket prints the given items of an order for the kitchen
func (s *PrinterService) PrintKitchenTicket(ctx context.Context, order *entity.Order, items []entity.OrderItem, now time.Time) error {
	ticket := &entity.KitchenTicket{
		OrderNo: order.OrderNumber,
		Time:    now.Format(ticketTimeFormat),
	}
	if order.TableRef != nil {
		ticket.TableRef = *order.TableRef
	}
	for _, item := range items {
		ticket.Items = append(ticket.Items, entity.KitchenTicketItem{
			Name:     item.ProductName,
			Quantity: item.Quantity,
			Note:     item.Note,
		})
	}
	if len(ticket.Items) == 0 {
		return nil
	}
	return s.printer.Print(ctx, FormatKitchenTicket(ticket, s.charWidth))
}

// PrintCashCloseReport prints the drawer summary of a closed session
func (s *PrinterService) PrintCashCloseReport(ctx context.Context, tenant *entity.Tenant, session *entity.CashSession, cashSalesCents int64) (*entity.CashCloseReport, error) {
	report := BuildCashCloseReport(tenant, session, cashSalesCents)
	if err := s.printer.Print(ctx, FormatCashCloseReport(report, s.charWidth)); err != nil {
		return report, fmt.Errorf("failed to print close report: %w", err)
	}
	return report, nil
}

// BuildReceipt composes the receipt of an order in the tenant's currency
func BuildReceipt(tenant *entity.Tenant, order *entity.Order) *entity.Receipt {
	settings := tenant.Settings
	format := func(cents int64) string {
		return money.Format(cents, settings.CurrencyExponent)
	}

	outstanding := money.Max(order.OutstandingCents(), 0)
	receipt := &entity.Receipt{
		Header:   settings.ReceiptHeader,
		OrderNo:  order.OrderNumber,
		Date:     order.OpenedAt.Format(receiptTimeFormat),
		SubTotal: format(order.SubtotalCents),
		TaxLabel: settings.TaxLabel,
		Tax:      format(order.TaxCents),
		Total:    money.FormatWithCurrency(order.TotalCents+order.TipCents, settings.CurrencyExponent, order.Currency),
		Paid:     format(order.CapturedCents()),
		Due:      format(outstanding),
	}
	if order.TableRef != nil {
		receipt.TableRef = *order.TableRef
	}
	if order.DiscountCents > 0 {
		receipt.Discount = format(order.DiscountCents)
	}
	if order.TipCents > 0 {
		receipt.Tip = format(order.TipCents)
	}

	for _, item := range order.ActiveItems() {
		receipt.Items = append(receipt.Items, entity.ReceiptItem{
			Name:      item.ProductName,
			Quantity:  item.Quantity,
			UnitPrice: format(item.UnitPriceCents),
			Total:     format(item.LineTotalCents()),
		})
	}
	for _, p := range order.Payments {
		if !p.Status.CountsTowardsBalance() {
			continue
		}
		line := entity.ReceiptPayment{Provider: p.Provider.String(), Amount: format(p.AmountCents)}
		if p.Provider == enum.PaymentProviderCash && p.Metadata.ChangeDueCents > 0 {
			line.Change = format(p.Metadata.ChangeDueCents)
		}
		receipt.Payments = append(receipt.Payments, line)
	}
	return receipt
}

// BuildCashCloseReport composes the drawer summary of a closed session
func BuildCashCloseReport(tenant *entity.Tenant, session *entity.CashSession, cashSalesCents int64) *entity.CashCloseReport {
	exp := tenant.Settings.CurrencyExponent
	deref := func(v *int64) string {
		if v == nil {
			return "-"
		}
		return money.Format(*v, exp)
	}

	report := &entity.CashCloseReport{
		StoreName: tenant.Settings.ReceiptHeader.StoreName,
		OpenedAt:  session.OpenedAt.Format(receiptTimeFormat),
		Opening:   money.Format(session.OpeningCashCents, exp),
		CashSales: money.Format(cashSalesCents, exp),
		Expected:  deref(session.ExpectedCashCents),
		Counted:   deref(session.ClosingCashCents),
		Variance:  deref(session.VarianceCents),
	}
	if report.StoreName == "" {
		report.StoreName = tenant.Name
	}
	if session.ClosedAt != nil {
		report.ClosedAt = session.ClosedAt.Format(receiptTimeFormat)
	}
	return report
}

// FormatReceipt converts a Receipt into ESC/POS bytes.
func FormatReceipt(r *entity.Receipt, width int) []byte {
	doc := printer.NewDocument(width)

	// Header
	doc.SetAlign(printer.AlignCenter).
		SetBold(true).
		SetFontSize(printer.FontDouble).
		Text(r.Header.StoreName).
		SetFontSize(printer.FontNormal).
		SetBold(false)

	if r.Header.Address != "" {
		doc.Text(r.Header.Address)
	}
	if r.Header.Phone != "" {
		doc.Text(r.Header.Phone)
	}
	if r.Header.TaxID != "" {
		doc.TextF("Tax ID: %s", r.Header.TaxID)
	}

	doc.SetAlign(printer.AlignLeft).
		Separator('-').
		KeyValue("Order:", r.OrderNo).
		KeyValue("Date:", r.Date)
	if r.TableRef != "" {
		doc.KeyValue("Table:", r.TableRef)
	}
	doc.Separator('-')

	for _, item := range r.Items {
		doc.ItemLine(item.Quantity, item.Name, item.Total)
		if item.Quantity > 1 {
			doc.TextF("  @ %s each", item.UnitPrice)
		}
	}

	doc.Separator('-').
		KeyValue("Subtotal:", r.SubTotal)
	if r.Discount != "" {
		doc.KeyValue("Discount:", "-"+r.Discount)
	}
	doc.KeyValue(r.TaxLabel+":", r.Tax)
	if r.Tip != "" {
		doc.KeyValue("Tip:", r.Tip)
	}
	doc.SetBold(true).
		KeyValue("TOTAL:", r.Total).
		SetBold(false)

	for _, p := range r.Payments {
		doc.KeyValue(p.Provider+":", p.Amount)
		if p.Change != "" {
			doc.KeyValue("Change:", p.Change)
		}
	}
	doc.KeyValue("Paid:", r.Paid).
		KeyValue("Due:", r.Due).
		Separator('-')

	doc.SetAlign(printer.AlignCenter).
		LineFeed().
		Text("Thank you!").
		SetAlign(printer.AlignLeft).
		FeedLines(3).
		PartialCut()

	return doc.Bytes()
}

// FormatKitchenTicket converts a KitchenTicket into ESC/POS bytes.
func FormatKitchenTicket(t *entity.KitchenTicket, width int) []byte {
	doc := printer.NewDocument(width)

	doc.SetAlign(printer.AlignCenter).
		SetBold(true).
		SetFontSize(printer.FontTall).
		Text(t.OrderNo).
		SetFontSize(printer.FontNormal).
		SetBold(false)
	if t.TableRef != "" {
		doc.TextF("Table %s", t.TableRef)
	}
	doc.Text(t.Time).
		SetAlign(printer.AlignLeft).
		Separator('=')

	for _, item := range t.Items {
		doc.SetBold(true).
			TextF("%dx %s", item.Quantity, item.Name).
			SetBold(false)
		if item.Note != "" {
			doc.Wrap(item.Note, 3)
		}
	}

	doc.Separator('=').
		FeedLines(3).
		PartialCut()

	return doc.Bytes()
}

// FormatCashCloseReport converts a CashCloseReport into ESC/POS bytes.
func FormatCashCloseReport(r *entity.CashCloseReport, width int) []byte {
	doc := printer.NewDocument(width)

	doc.SetAlign(printer.AlignCenter).
		SetBold(true).
		Text(r.StoreName).
		Text("CASH DRAWER CLOSE").
		SetBold(false).
		SetAlign(printer.AlignLeft).
		Separator('-').
		KeyValue("Opened:", r.OpenedAt).
		KeyValue("Closed:", r.ClosedAt).
		Separator('-').
		KeyValue("Opening float:", r.Opening).
		KeyValue("Cash sales:", r.CashSales).
		KeyValue("Expected:", r.Expected).
		KeyValue("Counted:", r.Counted).
		SetBold(true).
		KeyValue("Variance:", r.Variance).
		SetBold(false).
		Separator('-').
		FeedLines(3).
		PartialCut()

	return doc.Bytes()
}
