package infra

// printer.go — receipt generation using go-pdf/fpdf.
// Renders a thermal-format receipt for a finalized pedido: store name header,
// pickup pin/password block, item table with observations, payment breakdown
// with change. The presentation layer decides when to hand it to an actual
// printer; this side only produces the file.

import (
	"fmt"
	"os"
	"path/filepath"

	"blendresto/internal/model"

	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GenerarReciboPDF writes the receipt for a finalized pedido into storagePath
// and returns the absolute file path. nombreCategoria resolves a category id
// to its display name (nil-safe categoria ids produce an empty section label).
func GenerarReciboPDF(pedido *model.Pedido, nombreCategoria func(uuid.UUID) string, nombreComercio, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("recibo: create storage dir: %w", err)
	}

	fileName := fmt.Sprintf("recibo_%s.pdf", pedido.Pin)
	filePath := filepath.Join(storagePath, fileName)

	// 74mm × 120mm — thermal receipt paper
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: 74, Ht: 120},
	})
	pdf.SetMargins(4, 4, 4)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 8

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(contentW, 7, nombreComercio, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW, 5, "Comprobante de pedido", "", 1, "C", false, 0, "")
	pdf.Ln(2)

	// ── Pickup block ─────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW, 9, fmt.Sprintf("Pedido %s", pedido.Pin), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW, 5, fmt.Sprintf("Retiro: %s", pedido.Password), "", 1, "C", false, 0, "")
	pdf.CellFormat(contentW, 4, pedido.CreatedAt.Format("02/01/2006  15:04"), "", 1, "C", false, 0, "")
	pdf.Ln(2)

	// ── Items ────────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "", 8)
	for _, item := range pedido.Items {
		label := item.Nombre
		if item.CategoriaID != nil && nombreCategoria != nil {
			if cat := nombreCategoria(*item.CategoriaID); cat != "" {
				label = fmt.Sprintf("%s — %s", cat, item.Nombre)
			}
		}
		subtotal := item.PrecioUnitario.Mul(decimal.NewFromInt(int64(item.Cantidad)))
		pdf.CellFormat(contentW*0.62, 5, fmt.Sprintf("%dx %s", item.Cantidad, label), "", 0, "L", false, 0, "")
		pdf.CellFormat(contentW*0.38, 5, "$"+subtotal.StringFixed(2), "", 1, "R", false, 0, "")
		if item.Observaciones != nil && *item.Observaciones != "" {
			pdf.SetFont("Helvetica", "I", 7)
			pdf.CellFormat(contentW, 4, "  "+*item.Observaciones, "", 1, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", 8)
		}
	}
	pdf.Ln(1)

	// ── Total & payments ─────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(contentW*0.5, 6, "TOTAL", "T", 0, "L", false, 0, "")
	pdf.CellFormat(contentW*0.5, 6, "$"+pedido.Total.StringFixed(2), "T", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	for _, pago := range pedido.Pagos {
		pdf.CellFormat(contentW*0.5, 4, pago.Metodo, "", 0, "L", false, 0, "")
		pdf.CellFormat(contentW*0.5, 4, "$"+pago.Monto.StringFixed(2), "", 1, "R", false, 0, "")
	}
	if pedido.Vuelto.IsPositive() {
		pdf.CellFormat(contentW*0.5, 4, "vuelto", "", 0, "L", false, 0, "")
		pdf.CellFormat(contentW*0.5, 4, "$"+pedido.Vuelto.StringFixed(2), "", 1, "R", false, 0, "")
	}

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("recibo: write pdf: %w", err)
	}
	return filePath, nil
}
