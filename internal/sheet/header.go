package sheet

import (
	"github.com/agladsoft/unzipping-ingestor/internal/catalog"
	"github.com/agladsoft/unzipping-ingestor/internal/normalize"
)

// HeaderProbabilityCoefficient is the minimum score (0-100) a row must reach
// to qualify as the line-item table header.
const HeaderProbabilityCoefficient = 20

// MinHeaderCells is the minimum count of non-null cells a header row must
// carry, independent of score.
const MinHeaderCells = 5

// HeaderScore is the result of scoring one row as a candidate table header.
type HeaderScore struct {
	NonNullCells int
	Score        int
}

// ScoreRow scores row against the catalog's flattened header synonym set.
// Score = floor(100 * matches / non-null cells); 0 when the row is all-null.
func ScoreRow(row []string, cat *catalog.Catalog) HeaderScore {
	nonNull := 0
	matches := 0
	for _, cell := range row {
		if cell == "" {
			continue
		}
		nonNull++
		if _, ok := cat.MatchField(normalize.Tight(cell)); ok {
			matches++
		}
	}
	if nonNull == 0 {
		return HeaderScore{}
	}
	return HeaderScore{
		NonNullCells: nonNull,
		Score:        (100 * matches) / nonNull,
	}
}

// IsHeaderRow applies the qualifying threshold to a HeaderScore.
func IsHeaderRow(s HeaderScore) bool {
	return s.Score >= HeaderProbabilityCoefficient && s.NonNullCells >= MinHeaderCells
}

// ColumnPositions maps a canonical field to the column index it was found
// at in the header row currently in scope.
type ColumnPositions map[catalog.Field]int

// MapColumns builds ColumnPositions by matching each normalized header cell
// against the catalog's field synonym set. First occurrence wins on
// duplicate headers.
func MapColumns(headerRow []string, cat *catalog.Catalog) ColumnPositions {
	positions := make(ColumnPositions)
	for i, cell := range headerRow {
		if cell == "" {
			continue
		}
		field, ok := cat.MatchField(normalize.Tight(cell))
		if !ok {
			continue
		}
		if _, exists := positions[field]; exists {
			continue
		}
		positions[field] = i
	}
	return positions
}
