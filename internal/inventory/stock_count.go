package inventory

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"japoke-backend/internal/apperr"
	"japoke-backend/internal/logging"
	"japoke-backend/internal/models"

	"github.com/xuri/excelize/v2"
)

// normalizeSpanish lowercases and strips accents so "Salmón" matches "salmon".
func normalizeSpanish(s string) string {
	replacements := map[rune]rune{
		'á': 'a', 'Á': 'a',
		'é': 'e', 'É': 'e',
		'í': 'i', 'Í': 'i',
		'ó': 'o', 'Ó': 'o',
		'ú': 'u', 'Ú': 'u', 'ü': 'u', 'Ü': 'u',
		'ñ': 'n', 'Ñ': 'n',
	}
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		if rep, ok := replacements[r]; ok {
			b.WriteRune(rep)
			continue
		}
		b.WriteRune(r)
	}
	return strings.Join(strings.Fields(strings.ToLower(b.String())), " ")
}

type CountRow struct {
	Row     int    `json:"row"`
	Name    string `json:"name"`
	Counted string `json:"counted,omitempty"`
	Problem string `json:"problem,omitempty"`
}

type CountImportResult struct {
	Adjusted  []models.StockMovement `json:"adjusted"`
	Unmatched []CountRow             `json:"unmatched"`
	Invalid   []CountRow             `json:"invalid"`
}

// ImportStockCount reads a physical count sheet (column A: name or slug,
// column B: counted stock in the tracking unit) and turns every matched row
// into a manual adjustment.
func (l *Ledger) ImportStockCount(ctx context.Context, r io.Reader, createdBy string) (*CountImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperr.Validation("No se pudo leer el archivo Excel: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperr.Validation("El archivo Excel no tiene hojas")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, apperr.Validation("No se pudo leer la hoja: %v", err)
	}
	if len(rows) == 0 {
		return nil, apperr.Validation("El archivo Excel está vacío")
	}

	index, err := l.holderIndex(ctx)
	if err != nil {
		return nil, err
	}

	res := &CountImportResult{
		Adjusted:  []models.StockMovement{},
		Unmatched: []CountRow{},
		Invalid:   []CountRow{},
	}
	for i, row := range rows {
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		if i == 0 && isHeaderRow(row) {
			continue
		}
		name := strings.TrimSpace(row[0])
		cr := CountRow{Row: i + 1, Name: name}

		ref, ok := index[normalizeSpanish(name)]
		if !ok {
			res.Unmatched = append(res.Unmatched, cr)
			continue
		}
		if len(row) < 2 {
			cr.Problem = "falta la cantidad contada"
			res.Invalid = append(res.Invalid, cr)
			continue
		}
		cr.Counted = strings.TrimSpace(row[1])
		counted, err := parseCount(cr.Counted)
		if err != nil {
			cr.Problem = "cantidad inválida"
			res.Invalid = append(res.Invalid, cr)
			continue
		}

		mv, err := l.AdjustStock(ctx, AdjustInput{
			Ref:       ref,
			NewStock:  counted,
			Reason:    models.MovementManualAdjustment,
			Notes:     fmt.Sprintf("Conteo de inventario (fila %d)", i+1),
			CreatedBy: createdBy,
		})
		if err != nil {
			if apperr.KindOf(err) == apperr.KindInternal {
				logging.LogError(l.log, "ImportStockCount", "adjustment failed", cr, err)
				return res, err
			}
			cr.Problem = err.Error()
			res.Invalid = append(res.Invalid, cr)
			continue
		}
		res.Adjusted = append(res.Adjusted, *mv)
	}
	return res, nil
}

// holderIndex maps normalized names and slugs of trackable items and active
// supplies to their refs.
func (l *Ledger) holderIndex(ctx context.Context) (map[string]models.StockRef, error) {
	items, err := l.store.TrackableItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}
	supplies, err := l.store.Supplies(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("load supplies: %w", err)
	}
	index := make(map[string]models.StockRef, 2*(len(items)+len(supplies)))
	for _, it := range items {
		index[normalizeSpanish(it.Name)] = models.ItemRef(it.ID)
		index[normalizeSpanish(it.Slug)] = models.ItemRef(it.ID)
	}
	for _, sp := range supplies {
		index[normalizeSpanish(sp.Name)] = models.SupplyRef(sp.ID)
		index[normalizeSpanish(sp.Slug)] = models.SupplyRef(sp.ID)
	}
	return index, nil
}

func isHeaderRow(row []string) bool {
	first := normalizeSpanish(row[0])
	for _, h := range []string{"ingrediente", "insumo", "nombre", "producto", "item"} {
		if strings.Contains(first, h) {
			return true
		}
	}
	if len(row) > 1 {
		if _, err := parseCount(row[1]); err != nil {
			return true
		}
	}
	return false
}

func parseCount(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	return strconv.ParseFloat(s, 64)
}
