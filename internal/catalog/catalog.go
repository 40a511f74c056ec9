// Package catalog loads the synonym tables that drive header detection,
// column mapping and pre-table label harvesting from the operator-maintained
// configuration workbook (unzipping_table.xlsx).
package catalog

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/agladsoft/unzipping-ingestor/internal/ingesterr"
	"github.com/agladsoft/unzipping-ingestor/internal/normalize"
)

// Field is a canonical line-item column name.
type Field string

const (
	FieldModel             Field = "model"
	FieldNumberPP          Field = "number_pp"
	FieldTnvedCode         Field = "tnved_code"
	FieldCountryOfOrigin   Field = "country_of_origin"
	FieldGoodsDescription  Field = "goods_description"
	FieldQuantity          Field = "quantity"
	FieldPackageQuantity   Field = "package_quantity"
	FieldNetWeight         Field = "net_weight"
	FieldGrossWeight       Field = "gross_weight"
	FieldPricePerPiece     Field = "price_per_piece"
	FieldTotalCost         Field = "total_cost"
)

// AllFields enumerates the 11 canonical line-item fields in the order the
// configuration workbook's headers_table sheet declares them.
var AllFields = []Field{
	FieldModel, FieldNumberPP, FieldTnvedCode, FieldCountryOfOrigin,
	FieldGoodsDescription, FieldQuantity, FieldPackageQuantity,
	FieldNetWeight, FieldGrossWeight, FieldPricePerPiece, FieldTotalCost,
}

// Role is a canonical party/header role harvested from pre-table rows.
type Role string

const (
	RoleSeller             Role = "seller"
	RoleSellerPriority     Role = "seller_priority"
	RoleBuyer              Role = "buyer"
	RoleBuyerPriority      Role = "buyer_priority"
	RoleDestinationStation Role = "destination_station"
	RoleDepartureStation   Role = "departure_station"
	RoleContainerNumber    Role = "container_number"
)

// PartyRoles is the ordered set of the six party/station roles read from the
// labels_before_table sheet (container_number is added separately).
var PartyRoles = []Role{
	RoleSeller, RoleSellerPriority, RoleBuyer, RoleBuyerPriority,
	RoleDestinationStation, RoleDepartureStation,
}

// StationAlias pairs a substring with its canonical replacement.
type StationAlias struct {
	Substring string
	Canonical string
}

// Catalog holds every synonym table, loaded once at startup and treated as
// read-only thereafter.
type Catalog struct {
	FieldHeaders       map[Field]map[string]bool // canonical field -> set of tight-normalized synonyms
	PartyLabels        map[Role]map[string]bool  // canonical role -> set of tight-normalized synonyms
	StationAliases     []StationAlias
	PrioritySheetNames []string
	DefaultColumnPositions map[Field]int

	// synonymToField and synonymToRole are the flattened reverse indices
	// HeaderScorer and the pre-table harvester actually walk.
	synonymToField map[string]Field
	synonymToRole  map[string]Role
}

// New builds a Catalog directly from in-memory tables, bypassing the
// workbook loader. Used by tests and by callers that assemble the catalog
// from a source other than unzipping_table.xlsx.
func New(fieldHeaders map[Field]map[string]bool, partyLabels map[Role]map[string]bool,
	stationAliases []StationAlias, priority []string, defaults map[Field]int) *Catalog {
	c := &Catalog{
		FieldHeaders:           fieldHeaders,
		PartyLabels:            partyLabels,
		StationAliases:         stationAliases,
		PrioritySheetNames:     priority,
		DefaultColumnPositions: defaults,
	}
	c.buildReverseIndex()
	return c
}

const (
	sheetLabelsBeforeTable = "labels_before_table"
	sheetHeadersTable      = "headers_table"
	sheetStation           = "station"
	sheetPrioritySheets    = "priority_sheets"
	sheetDefaultColumns    = "default_columns"
)

// Load reads the configuration workbook at path and builds a Catalog. A
// missing headers_table, labels_before_table or station sheet is a fatal
// ConfigError; a missing column leaves that field or role without synonyms.
func Load(path string) (*Catalog, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, ingesterr.Wrap(ingesterr.ErrConfig, "open "+path, err)
	}
	defer f.Close()

	fieldHeaders, err := loadFieldBag(f, sheetHeadersTable, fieldColumns())
	if err != nil {
		return nil, err
	}
	partyLabels, err := loadRoleBag(f, sheetLabelsBeforeTable, roleColumns())
	if err != nil {
		return nil, err
	}
	stationAliases, err := loadStationAliases(f)
	if err != nil {
		return nil, err
	}
	priority, err := loadPrioritySheets(f)
	if err != nil {
		return nil, err
	}
	defaults, err := loadDefaultColumns(f)
	if err != nil {
		return nil, err
	}

	c := &Catalog{
		FieldHeaders:          fieldHeaders,
		PartyLabels:           partyLabels,
		StationAliases:        stationAliases,
		PrioritySheetNames:    priority,
		DefaultColumnPositions: defaults,
	}
	c.buildReverseIndex()
	return c, nil
}

// loadDefaultColumns reads the optional "default_columns" sheet: two
// columns, field name and 0-based column index, used by SheetDecoder to
// recognize headerless tables whose layout is a known convention.
func loadDefaultColumns(f *excelize.File) (map[Field]int, error) {
	rows, err := f.GetRows(sheetDefaultColumns)
	if err != nil {
		return nil, nil
	}
	out := make(map[Field]int)
	valid := fieldColumns()
	for i, row := range rows {
		if i == 0 || len(row) < 2 {
			continue
		}
		field, ok := valid[row[0]]
		if !ok {
			continue
		}
		var idx int
		if _, err := fmt.Sscanf(row[1], "%d", &idx); err != nil {
			continue
		}
		out[field] = idx
	}
	return out, nil
}

func fieldColumns() map[string]Field {
	m := make(map[string]Field, len(AllFields))
	for _, f := range AllFields {
		m[string(f)] = f
	}
	return m
}

func roleColumns() map[string]Role {
	m := make(map[string]Role, len(PartyRoles)+1)
	for _, r := range PartyRoles {
		m[string(r)] = r
	}
	m[string(RoleContainerNumber)] = RoleContainerNumber
	return m
}

func loadFieldBag(f *excelize.File, sheet string, wanted map[string]Field) (map[Field]map[string]bool, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, ingesterr.Wrap(ingesterr.ErrConfig, "sheet "+sheet, err)
	}
	out := make(map[Field]map[string]bool, len(wanted))
	if len(rows) == 0 {
		return out, nil
	}
	header := rows[0]
	for col, name := range header {
		field, ok := wanted[name]
		if !ok {
			continue
		}
		bag := make(map[string]bool)
		for _, row := range rows[1:] {
			if col >= len(row) || row[col] == "" {
				continue
			}
			bag[normalize.Tight(row[col])] = true
		}
		out[field] = bag
	}
	return out, nil
}

func loadRoleBag(f *excelize.File, sheet string, wanted map[string]Role) (map[Role]map[string]bool, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, ingesterr.Wrap(ingesterr.ErrConfig, "sheet "+sheet, err)
	}
	out := make(map[Role]map[string]bool, len(wanted))
	if len(rows) == 0 {
		return out, nil
	}
	header := rows[0]
	for col, name := range header {
		role, ok := wanted[name]
		if !ok {
			continue
		}
		bag := make(map[string]bool)
		for _, row := range rows[1:] {
			if col >= len(row) || row[col] == "" {
				continue
			}
			bag[normalize.Tight(row[col])] = true
		}
		out[role] = bag
	}
	return out, nil
}

func loadStationAliases(f *excelize.File) ([]StationAlias, error) {
	rows, err := f.GetRows(sheetStation)
	if err != nil {
		return nil, ingesterr.Wrap(ingesterr.ErrConfig, "sheet "+sheetStation, err)
	}
	var out []StationAlias
	for i, row := range rows {
		if i == 0 {
			continue // header row: "station", "station_unified"
		}
		if len(row) < 2 || row[0] == "" || row[1] == "" {
			continue
		}
		out = append(out, StationAlias{Substring: row[0], Canonical: row[1]})
	}
	return out, nil
}

func loadPrioritySheets(f *excelize.File) ([]string, error) {
	rows, err := f.GetRows(sheetPrioritySheets)
	if err != nil {
		// Optional sheet: absence just means no tie-break preference.
		return nil, nil
	}
	var out []string
	for i, row := range rows {
		if i == 0 || len(row) == 0 || row[0] == "" {
			continue
		}
		out = append(out, row[0])
	}
	return out, nil
}

func (c *Catalog) buildReverseIndex() {
	c.synonymToField = make(map[string]Field)
	for field, bag := range c.FieldHeaders {
		for syn := range bag {
			c.synonymToField[syn] = field
		}
	}
	c.synonymToRole = make(map[string]Role)
	for role, bag := range c.PartyLabels {
		for syn := range bag {
			c.synonymToRole[syn] = role
		}
	}
}

// MatchField returns the canonical field whose synonym set contains the
// tight-normalized cell text, if any.
func (c *Catalog) MatchField(tightCell string) (Field, bool) {
	f, ok := c.synonymToField[tightCell]
	return f, ok
}

// MatchRole returns the canonical role whose synonym set contains the
// tight-normalized cell text, if any.
func (c *Catalog) MatchRole(tightCell string) (Role, bool) {
	r, ok := c.synonymToRole[tightCell]
	return r, ok
}

// HeaderSynonymCount returns how many distinct header synonyms the catalog
// knows.
func (c *Catalog) HeaderSynonymCount() int {
	return len(c.synonymToField)
}

// NormalizeStation applies the first matching station alias (case-insensitive
// substring, first hit wins) or returns the input unchanged.
func (c *Catalog) NormalizeStation(value string) string {
	upper := normalize.Tight(value)
	for _, alias := range c.StationAliases {
		needle := normalize.Tight(alias.Substring)
		if needle != "" && strings.Contains(upper, needle) {
			return alias.Canonical
		}
	}
	return value
}

// MissingRequiredSheets reports which of the required sheets
// (labels_before_table, headers_table, station) are absent from the workbook
// at path, so all of them can be reported at once.
func MissingRequiredSheets(path string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	present := make(map[string]bool)
	for _, s := range f.GetSheetList() {
		present[s] = true
	}
	var missing []string
	for _, required := range []string{sheetLabelsBeforeTable, sheetHeadersTable, sheetStation} {
		if !present[required] {
			missing = append(missing, required)
		}
	}
	return missing, nil
}
