package sheet

import (
	"strings"

	"github.com/agladsoft/unzipping-ingestor/internal/catalog"
	"github.com/agladsoft/unzipping-ingestor/internal/ingesterr"
	"github.com/agladsoft/unzipping-ingestor/internal/normalize"
)

type decoderState int

const (
	statePreHeader decoderState = iota
	statePostHeader
)

// continuationSlots maps the running count of "Address/ Адрес/ 地址"-style
// double-label occurrences to the role whose value the next non-null cell
// should be appended to. Index 2 is intentionally absent: the second
// occurrence marks destination_station instead (see harvestRow) and has no
// continuation slot.
var continuationSlots = map[int]catalog.Role{
	1: catalog.RoleSeller,
	3: catalog.RoleSellerPriority,
	4: catalog.RoleBuyerPriority,
}

// doubleLabelLiterals lists the literal pre-table labels that, on their
// second occurrence, mark the following non-null cell as destination_station
// rather than triggering the normal label-span harvesting.
var doubleLabelLiterals = []string{
	normalize.Tight("Address/ Адрес/ 地址"),
	normalize.Tight("Address/ Адрес/ "),
}

// Decoder drives the pre-header/post-header state machine over one sheet's
// rows and emits a ShipmentRecord.
type Decoder struct {
	cat *catalog.Catalog
}

// NewDecoder builds a Decoder bound to the given label catalog.
func NewDecoder(cat *catalog.Catalog) *Decoder {
	return &Decoder{cat: cat}
}

type openSpan struct {
	role  catalog.Role
	start int
}

// Decode runs the state machine over rows (blank rows already dropped by the
// caller; cells are not trimmed) and returns the resulting ShipmentRecord. seedHeader
// carries header fields computed outside the sheet (original file name,
// parse timestamp, archive name, container number) merged in before
// line-item emission begins.
func (d *Decoder) Decode(rows [][]string, seedHeader map[string]string) (*ShipmentRecord, error) {
	header := cloneHeader(seedHeader)
	var lineItems []map[string]string

	state := statePreHeader
	cols := make(ColumnPositions)
	for field, idx := range d.cat.DefaultColumnPositions {
		cols[field] = idx
	}

	openSpans := map[catalog.Role]*openSpan{}
	doubleLabelCount := 0

	closeSpan := func(role catalog.Role, span *openSpan, endRow int) {
		value := extractSpanValue(rows, span.start, endRow, role, d.cat)
		if value == "" {
			return
		}
		if _, exists := header[string(role)]; !exists {
			header[string(role)] = normalize.Loose(value)
		}
	}

	closeAllSpans := func(endRow int) {
		for role, span := range openSpans {
			closeSpan(role, span, endRow)
			delete(openSpans, role)
		}
	}

	for i, row := range rows {
		switch state {
		case statePreHeader:
			score := ScoreRow(row, d.cat)
			if IsHeaderRow(score) {
				closeAllSpans(i)
				if !partyComplete(header) {
					return nil, ingesterr.Wrap(ingesterr.ErrDecode, "party-completeness invariant failed at header row", nil)
				}
				cols = MapColumns(row, d.cat)
				state = statePostHeader
				continue
			}
			if startsLineItem(row, cols) {
				lineItems = append(lineItems, emitLineItem(row, cols, header))
				continue
			}
			d.harvestRow(row, i, header, openSpans, &doubleLabelCount, closeSpan)
		case statePostHeader:
			if startsLineItem(row, cols) {
				lineItems = append(lineItems, emitLineItem(row, cols, header))
			}
		}
	}
	closeAllSpans(len(rows))

	return &ShipmentRecord{Header: header, LineItems: lineItems}, nil
}

// partyComplete implements the §4.3.1 party-completeness invariant.
func partyComplete(header map[string]string) bool {
	_, hasSeller := header[string(catalog.RoleSeller)]
	_, hasSellerPriority := header[string(catalog.RoleSellerPriority)]
	_, hasBuyer := header[string(catalog.RoleBuyer)]
	_, hasBuyerPriority := header[string(catalog.RoleBuyerPriority)]
	destination := header[string(catalog.RoleDestinationStation)]
	return (hasSeller || hasSellerPriority) && (hasBuyer || hasBuyerPriority) && destination != ""
}

// startsLineItem implements the §4.3.2 table-start heuristic.
func startsLineItem(row []string, cols ColumnPositions) bool {
	tnvedIdx, ok := cols[catalog.FieldTnvedCode]
	if !ok || tnvedIdx >= len(row) {
		return false
	}
	tnved := row[tnvedIdx]
	if tnved == "" || !normalize.HasDigit(tnved) {
		return false
	}

	if _, ok := cols[catalog.FieldModel]; ok {
		return true
	}
	if _, ok := cols[catalog.FieldCountryOfOrigin]; ok {
		return true
	}
	if _, ok := cols[catalog.FieldGoodsDescription]; ok {
		return true
	}
	if idx, ok := cols[catalog.FieldNumberPP]; ok && idx < len(row) && normalize.IsNumeric(row[idx]) {
		return true
	}
	return false
}

// emitLineItem implements §4.3.3.
func emitLineItem(row []string, cols ColumnPositions, header map[string]string) map[string]string {
	item := cloneHeader(header)
	tnvedIdx := cols[catalog.FieldTnvedCode]
	item[string(catalog.FieldTnvedCode)] = strings.TrimSpace(row[tnvedIdx])
	return item
}

// harvestRow implements §4.3.4 (a) cell-pair form, (b) inline form and
// (c) same-label merging, for a single pre-header row.
func (d *Decoder) harvestRow(row []string, rowIdx int, header map[string]string, openSpans map[catalog.Role]*openSpan,
	doubleLabelCount *int, closeSpan func(catalog.Role, *openSpan, int)) {

	for _, cell := range row {
		if cell == "" {
			continue
		}

		if isDoubleLabelLiteral(cell) {
			*doubleLabelCount++
			if *doubleLabelCount == 2 {
				if v := firstOtherNonNull(row, cell); v != "" {
					if _, exists := header[string(catalog.RoleDestinationStation)]; !exists {
						header[string(catalog.RoleDestinationStation)] = normalize.Loose(v)
					}
				}
				continue
			}
			if role, ok := continuationSlots[*doubleLabelCount]; ok {
				if v := firstOtherNonNull(row, cell); v != "" {
					existing := header[string(role)]
					header[string(role)] = strings.TrimSpace(existing + " " + normalize.Loose(v))
				}
				continue
			}
		}

		if role, value, ok := parseInlineLabel(cell, d.cat); ok {
			header[string(role)] = value
			continue
		}

		if role, ok := d.cat.MatchRole(normalize.Tight(cell)); ok {
			if prev, exists := openSpans[role]; exists {
				closeSpan(role, prev, rowIdx)
			}
			openSpans[role] = &openSpan{role: role, start: rowIdx}
		}
	}
}

func isDoubleLabelLiteral(cell string) bool {
	tight := normalize.Tight(cell)
	for _, literal := range doubleLabelLiterals {
		if tight == literal {
			return true
		}
	}
	return false
}

func firstOtherNonNull(row []string, exclude string) string {
	for _, cell := range row {
		if cell == "" || cell == exclude {
			continue
		}
		return cell
	}
	return ""
}

// parseInlineLabel recognizes "LABEL:VALUE" / "LABEL：VALUE" cells.
func parseInlineLabel(cell string, cat *catalog.Catalog) (catalog.Role, string, bool) {
	for _, sep := range []string{":", "："} {
		if idx := strings.Index(cell, sep); idx >= 0 {
			label := cell[:idx]
			value := strings.TrimSpace(cell[idx+len(sep):])
			role, ok := cat.MatchRole(normalize.Tight(label))
			if ok && value != "" {
				return role, normalize.Loose(value), true
			}
		}
	}
	return "", "", false
}

// extractSpanValue picks the most relevant cell across rows[start:end) for
// role, per §4.3.4(a): first non-null for destination_station, longest
// non-null otherwise. Cells that are blank, numeric, or themselves a label
// are skipped.
func extractSpanValue(rows [][]string, start, end int, role catalog.Role, cat *catalog.Catalog) string {
	if end > len(rows) {
		end = len(rows)
	}
	var best string
	for r := start; r < end; r++ {
		for _, cell := range rows[r] {
			if cell == "" || normalize.IsNumeric(cell) {
				continue
			}
			if _, isLabel := cat.MatchRole(normalize.Tight(cell)); isLabel {
				continue
			}
			if role == catalog.RoleDestinationStation {
				return cell
			}
			if len(cell) > len(best) {
				best = cell
			}
		}
	}
	return best
}
