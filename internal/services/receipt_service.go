package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"pos-backend/internal/models"

	"github.com/jung-kurt/gofpdf/v2"
)

// ReceiptService renders sale receipts as PDFs
type ReceiptService struct {
	products ProductStore
	branches BranchStore
}

// BranchStore resolves branches for receipt headers
type BranchStore interface {
	Get(ctx context.Context, id int) (*models.Branch, error)
}

func NewReceiptService(products ProductStore, branches BranchStore) *ReceiptService {
	return &ReceiptService{products: products, branches: branches}
}

// Render produces the receipt PDF for a completed cart and its payments
func (s *ReceiptService) Render(ctx context.Context, cart *models.Cart, payments []models.Payment, receiptNumber string) ([]byte, error) {
	branchName := fmt.Sprintf("Branch #%d", cart.BranchID)
	branchAddress := ""
	if branch, err := s.branches.Get(ctx, cart.BranchID); err == nil {
		branchName = branch.Name
		branchAddress = branch.Address
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	// Header
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(190, 10, branchName, "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	if branchAddress != "" {
		pdf.CellFormat(190, 6, branchAddress, "", 1, "C", false, 0, "")
	}
	pdf.CellFormat(190, 6, fmt.Sprintf("Receipt: %s", receiptNumber), "", 1, "C", false, 0, "")
	pdf.CellFormat(190, 6, fmt.Sprintf("Sale: %s", cart.TransactionCode), "", 1, "C", false, 0, "")
	pdf.CellFormat(190, 6, fmt.Sprintf("Date: %s", time.Now().Format("02-Jan-2006 03:04 PM")), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	// Items table
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(200, 200, 200)
	pdf.CellFormat(90, 7, "Item", "1", 0, "L", true, 0, "")
	pdf.CellFormat(25, 7, "Qty", "1", 0, "C", true, 0, "")
	pdf.CellFormat(35, 7, "Price", "1", 0, "R", true, 0, "")
	pdf.CellFormat(40, 7, "Amount", "1", 1, "R", true, 0, "")

	pdf.SetFont("Arial", "", 10)
	for _, item := range cart.Items {
		name := fmt.Sprintf("Product #%d", item.ProductID)
		if product, err := s.products.Get(ctx, item.ProductID); err == nil {
			name = product.Name
		}
		if len(name) > 40 {
			name = name[:37] + "..."
		}
		pdf.CellFormat(90, 6, name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 6, fmt.Sprintf("%d", item.Quantity), "1", 0, "C", false, 0, "")
		pdf.CellFormat(35, 6, fmt.Sprintf("%.2f", item.Price), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%.2f", float64(item.Quantity)*item.Price), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(3)

	// Totals
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(150, 6, "Subtotal", "", 0, "R", false, 0, "")
	pdf.CellFormat(40, 6, fmt.Sprintf("%.2f", cart.Subtotal), "", 1, "R", false, 0, "")
	if cart.DiscountAmount > 0 {
		pdf.CellFormat(150, 6, "Discount", "", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("-%.2f", cart.DiscountAmount), "", 1, "R", false, 0, "")
	}
	if cart.TaxAmount > 0 {
		pdf.CellFormat(150, 6, fmt.Sprintf("Tax (%.1f%%)", cart.TaxRate), "", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%.2f", cart.TaxAmount), "", 1, "R", false, 0, "")
	}
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(150, 8, "Total", "T", 0, "R", false, 0, "")
	pdf.CellFormat(40, 8, fmt.Sprintf("%.2f", cart.Total), "T", 1, "R", false, 0, "")
	pdf.Ln(3)

	// Payments
	pdf.SetFont("Arial", "", 10)
	for _, p := range payments {
		if p.Status != models.PaymentCompleted || p.IsVoid {
			continue
		}
		label := string(p.PaymentMethod)
		pdf.CellFormat(150, 6, fmt.Sprintf("Paid (%s)", label), "", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%.2f", p.Amount), "", 1, "R", false, 0, "")
		if p.ChangeAmount > 0 {
			pdf.CellFormat(150, 6, "Change", "", 0, "R", false, 0, "")
			pdf.CellFormat(40, 6, fmt.Sprintf("%.2f", p.ChangeAmount), "", 1, "R", false, 0, "")
		}
	}

	pdf.Ln(8)
	pdf.SetFont("Arial", "I", 9)
	pdf.CellFormat(190, 5, "Thank you for your purchase", "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render receipt: %w", err)
	}

	return buf.Bytes(), nil
}
