package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/bom/pkg/domain/entities"
	"github.com/vsinha/bom/pkg/domain/repositories"
)

// File names read by LoadDir
const (
	UnitsFile       = "units.csv"
	ProductsFile    = "products.csv"
	HeadersFile     = "bom_headers.csv"
	DetailsFile     = "bom_details.csv"
	SubstitutesFile = "bom_substitutes.csv"
)

var (
	unitColumns       = []string{"id", "title", "symbol", "base_unit_id", "conversion_factor"}
	productColumns    = []string{"id", "code", "name", "unit_id", "supply_type"}
	headerColumns     = []string{"id", "product_id", "title", "version", "status", "type", "from_date", "to_date", "is_active"}
	detailColumns     = []string{"id", "bom_header_id", "child_product_id", "quantity", "waste_percentage", "input_quantity", "input_unit_id"}
	substituteColumns = []string{"id", "bom_detail_id", "substitute_product_id", "priority", "factor", "is_mix_allowed", "max_mix_percentage"}
)

// Dataset is a complete master-data and formula snapshot
type Dataset struct {
	Units    []*entities.Unit
	Products []*entities.Product
	Headers  []*entities.BOMHeader
}

// Loader handles loading formula data from CSV files
type Loader struct{}

// NewLoader creates a new CSV loader
func NewLoader() *Loader {
	return &Loader{}
}

// LoadDir reads every file of a dataset directory. The substitutes file is optional.
func (l *Loader) LoadDir(dir string) (*Dataset, error) {
	units, err := l.LoadUnits(filepath.Join(dir, UnitsFile))
	if err != nil {
		return nil, err
	}
	products, err := l.LoadProducts(filepath.Join(dir, ProductsFile))
	if err != nil {
		return nil, err
	}

	headers, err := l.LoadFormulas(dir)
	if err != nil {
		return nil, err
	}

	return &Dataset{Units: units, Products: products, Headers: headers}, nil
}

// LoadFormulas reads only the formula files of a dataset directory, for edits against
// master data that already exists. The substitutes file is optional.
func (l *Loader) LoadFormulas(dir string) ([]*entities.BOMHeader, error) {
	subsFile := filepath.Join(dir, SubstitutesFile)
	if _, err := os.Stat(subsFile); errors.Is(err, fs.ErrNotExist) {
		subsFile = ""
	}
	return l.LoadHeaders(filepath.Join(dir, HeadersFile), filepath.Join(dir, DetailsFile), subsFile)
}

// LoadUnits loads units of measure from a CSV file
func (l *Loader) LoadUnits(filename string) ([]*entities.Unit, error) {
	records, err := readRecords(filename, "units", unitColumns)
	if err != nil {
		return nil, err
	}

	units := make([]*entities.Unit, 0, len(records))
	for i, record := range records {
		unit, err := parseUnit(record)
		if err != nil {
			return nil, fmt.Errorf("units CSV row %d: %w", i+2, err)
		}
		units = append(units, unit)
	}
	return units, nil
}

// LoadProducts loads products from a CSV file
func (l *Loader) LoadProducts(filename string) ([]*entities.Product, error) {
	records, err := readRecords(filename, "products", productColumns)
	if err != nil {
		return nil, err
	}

	products := make([]*entities.Product, 0, len(records))
	for i, record := range records {
		supplyType, err := entities.ParseSupplyType(record[4])
		if err != nil {
			return nil, fmt.Errorf("products CSV row %d: %w", i+2, err)
		}
		product, err := entities.NewProduct(record[0], record[1], record[2], record[3], supplyType)
		if err != nil {
			return nil, fmt.Errorf("products CSV row %d: %w", i+2, err)
		}
		products = append(products, product)
	}
	return products, nil
}

// LoadHeaders loads formula headers and attaches their lines and substitutes.
// An empty substitutesFile means no substitutes.
func (l *Loader) LoadHeaders(headersFile, detailsFile, substitutesFile string) ([]*entities.BOMHeader, error) {
	headerRecords, err := readRecords(headersFile, "BOM headers", headerColumns)
	if err != nil {
		return nil, err
	}

	headers := make([]*entities.BOMHeader, 0, len(headerRecords))
	byID := make(map[string]*entities.BOMHeader, len(headerRecords))
	for i, record := range headerRecords {
		header, err := parseHeader(record)
		if err != nil {
			return nil, fmt.Errorf("BOM headers CSV row %d: %w", i+2, err)
		}
		if _, dup := byID[header.ID]; dup {
			return nil, fmt.Errorf("BOM headers CSV row %d: duplicate id %s", i+2, header.ID)
		}
		byID[header.ID] = header
		headers = append(headers, header)
	}

	detailRecords, err := readRecords(detailsFile, "BOM details", detailColumns)
	if err != nil {
		return nil, err
	}

	// line id -> (header, index) so substitutes can be attached after all lines are placed
	type lineRef struct {
		header *entities.BOMHeader
		index  int
	}
	lines := make(map[string]lineRef, len(detailRecords))
	for i, record := range detailRecords {
		detail, err := parseDetail(record)
		if err != nil {
			return nil, fmt.Errorf("BOM details CSV row %d: %w", i+2, err)
		}
		header, ok := byID[detail.BOMHeaderID]
		if !ok {
			return nil, fmt.Errorf("BOM details CSV row %d: unknown header %s", i+2, detail.BOMHeaderID)
		}
		if _, dup := lines[detail.ID]; dup {
			return nil, fmt.Errorf("BOM details CSV row %d: duplicate id %s", i+2, detail.ID)
		}
		header.Details = append(header.Details, detail)
		lines[detail.ID] = lineRef{header: header, index: len(header.Details) - 1}
	}

	if substitutesFile == "" {
		return headers, nil
	}

	subRecords, err := readRecords(substitutesFile, "BOM substitutes", substituteColumns)
	if err != nil {
		return nil, err
	}
	for i, record := range subRecords {
		sub, err := parseSubstitute(record)
		if err != nil {
			return nil, fmt.Errorf("BOM substitutes CSV row %d: %w", i+2, err)
		}
		ref, ok := lines[sub.BOMDetailID]
		if !ok {
			return nil, fmt.Errorf("BOM substitutes CSV row %d: unknown line %s", i+2, sub.BOMDetailID)
		}
		d := &ref.header.Details[ref.index]
		d.Substitutes = append(d.Substitutes, sub)
	}

	return headers, nil
}

// Seed writes the dataset through the gateway: units first, then products, then formulas
func (d *Dataset) Seed(ctx context.Context, units repositories.UnitRepository, products repositories.ProductRepository, boms repositories.BOMWriter) error {
	for _, u := range d.Units {
		if err := units.CreateUnit(ctx, u); err != nil {
			return fmt.Errorf("failed to import unit %s: %w", u.ID, err)
		}
	}
	for _, p := range d.Products {
		if err := products.CreateProduct(ctx, p); err != nil {
			return fmt.Errorf("failed to import product %s: %w", p.Code, err)
		}
	}
	for _, h := range d.Headers {
		if err := boms.CreateHeader(ctx, h); err != nil {
			return fmt.Errorf("failed to import formula %s: %w", h.ID, err)
		}
	}
	return nil
}

// readRecords opens filename, checks its header row and returns the data rows
func readRecords(filename, kind string, expectedHeader []string) ([][]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s file %s: %w", kind, filename, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s CSV: %w", kind, err)
	}

	if len(records) < 1 {
		return nil, fmt.Errorf("%s CSV must have a header row", kind)
	}

	header := records[0]
	if !validateHeader(header, expectedHeader) {
		return nil, fmt.Errorf("%s CSV header mismatch. Expected: %v, Got: %v", kind, expectedHeader, header)
	}

	rows := records[1:]
	for i, record := range rows {
		if len(record) != len(expectedHeader) {
			return nil, fmt.Errorf("%s CSV row %d: expected %d columns, got %d", kind, i+2, len(expectedHeader), len(record))
		}
		for j := range record {
			record[j] = strings.TrimSpace(record[j])
		}
	}
	return rows, nil
}

func validateHeader(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}

	for i, col := range expected {
		if strings.ToLower(strings.TrimSpace(actual[i])) != col {
			return false
		}
	}

	return true
}

func parseUnit(record []string) (*entities.Unit, error) {
	baseUnitID := optional(record[3])
	factor, err := parseDecimal("conversion_factor", record[4], decimal.Zero)
	if err != nil {
		return nil, err
	}
	return entities.NewUnit(record[0], record[1], record[2], baseUnitID, factor)
}

func parseHeader(record []string) (*entities.BOMHeader, error) {
	status, err := entities.ParseBOMStatus(record[4])
	if err != nil {
		return nil, err
	}
	bomType, err := entities.ParseBOMType(record[5])
	if err != nil {
		return nil, err
	}
	fromDate, err := parseDate("from_date", record[6])
	if err != nil {
		return nil, err
	}
	toDate, err := parseDate("to_date", record[7])
	if err != nil {
		return nil, err
	}
	isActive, err := parseBool("is_active", record[8])
	if err != nil {
		return nil, err
	}

	return &entities.BOMHeader{
		ID:        record[0],
		ProductID: record[1],
		Title:     record[2],
		Version:   record[3],
		Status:    status,
		Type:      bomType,
		FromDate:  fromDate,
		ToDate:    toDate,
		IsActive:  isActive,
	}, nil
}

func parseDetail(record []string) (entities.BOMDetail, error) {
	quantity, err := parseDecimal("quantity", record[3], decimal.Zero)
	if err != nil {
		return entities.BOMDetail{}, err
	}
	waste, err := parseDecimal("waste_percentage", record[4], decimal.Zero)
	if err != nil {
		return entities.BOMDetail{}, err
	}
	inputQty, err := parseDecimal("input_quantity", record[5], quantity)
	if err != nil {
		return entities.BOMDetail{}, err
	}

	return entities.BOMDetail{
		ID:              record[0],
		BOMHeaderID:     record[1],
		ChildProductID:  record[2],
		Quantity:        quantity,
		WastePercentage: waste,
		InputQuantity:   inputQty,
		InputUnitID:     optional(record[6]),
	}, nil
}

func parseSubstitute(record []string) (entities.BOMSubstitute, error) {
	priority, err := strconv.Atoi(record[3])
	if err != nil {
		return entities.BOMSubstitute{}, fmt.Errorf("invalid priority: %s", record[3])
	}
	factor, err := parseDecimal("factor", record[4], decimal.Zero)
	if err != nil {
		return entities.BOMSubstitute{}, err
	}
	mix, err := parseBool("is_mix_allowed", record[5])
	if err != nil {
		return entities.BOMSubstitute{}, err
	}
	maxMix, err := parseDecimal("max_mix_percentage", record[6], decimal.Zero)
	if err != nil {
		return entities.BOMSubstitute{}, err
	}

	return entities.BOMSubstitute{
		ID:                  record[0],
		BOMDetailID:         record[1],
		SubstituteProductID: record[2],
		Priority:            priority,
		Factor:              factor,
		IsMixAllowed:        mix,
		MaxMixPercentage:    maxMix,
	}, nil
}

func parseDecimal(column, s string, fallback decimal.Decimal) (decimal.Decimal, error) {
	if s == "" {
		return fallback, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s: %s", column, s)
	}
	return d, nil
}

func parseDate(column, s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("invalid %s format: %s (expected YYYY-MM-DD)", column, s)
	}
	return &t, nil
}

func parseBool(column, s string) (bool, error) {
	if s == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %s", column, s)
	}
	return b, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
