package csv

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vsinha/bom/pkg/domain/entities"
	"github.com/vsinha/bom/pkg/infrastructure/repositories/memory"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(strings.TrimLeft(content, "\n")), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func writeDataset(t *testing.T, withSubstitutes bool) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, UnitsFile, `
id,title,symbol,base_unit_id,conversion_factor
u-ea,each,ea,,
u-box,box,bx,u-ea,12
`)
	writeFile(t, dir, ProductsFile, `
id,code,name,unit_id,supply_type
A,P-A,Bicycle,u-ea,Manufactured
B,P-B,Wheel,u-ea,Manufactured
C,P-C,Spoke,u-ea,Purchased
D,P-D,Steel spoke,u-ea,Purchased
`)
	writeFile(t, dir, HeadersFile, `
id,product_id,title,version,status,type,from_date,to_date,is_active
H-A,A,Bicycle,1.0,Active,Manufacturing,2024-01-01,,true
H-B,B,Wheel,1.0,Active,Manufacturing,,,true
`)
	writeFile(t, dir, DetailsFile, `
id,bom_header_id,child_product_id,quantity,waste_percentage,input_quantity,input_unit_id
L-1,H-A,B,2,,,
L-2,H-B,C,36,5,3,u-box
`)
	if withSubstitutes {
		writeFile(t, dir, SubstitutesFile, `
id,bom_detail_id,substitute_product_id,priority,factor,is_mix_allowed,max_mix_percentage
S-1,L-2,D,1,1.5,true,40
`)
	}
	return dir
}

func TestLoader_LoadDir(t *testing.T) {
	dataset, err := NewLoader().LoadDir(writeDataset(t, true))
	if err != nil {
		t.Fatalf("Failed to load dataset: %v", err)
	}

	if len(dataset.Units) != 2 || len(dataset.Products) != 4 || len(dataset.Headers) != 2 {
		t.Fatalf("Expected 2 units, 4 products, 2 headers; got %d, %d, %d",
			len(dataset.Units), len(dataset.Products), len(dataset.Headers))
	}

	box := dataset.Units[1]
	if box.IsBase() || !box.ConversionFactor.Equal(decimal.NewFromInt(12)) {
		t.Errorf("Expected box based on each with factor 12, got %+v", box)
	}

	if dataset.Products[2].SupplyType != entities.Purchased {
		t.Errorf("Expected Purchased, got %s", dataset.Products[2].SupplyType)
	}

	headerA := dataset.Headers[0]
	if headerA.FromDate == nil || headerA.FromDate.Format("2006-01-02") != "2024-01-01" || headerA.ToDate != nil {
		t.Errorf("Unexpected validity %v - %v", headerA.FromDate, headerA.ToDate)
	}
	if !headerA.Details[0].InputQuantity.Equal(decimal.NewFromInt(2)) {
		t.Errorf("Expected input quantity to default to quantity, got %s", headerA.Details[0].InputQuantity)
	}

	line := dataset.Headers[1].Details[0]
	if line.InputUnitID == nil || *line.InputUnitID != "u-box" {
		t.Errorf("Expected input unit u-box, got %v", line.InputUnitID)
	}
	if !line.WastePercentage.Equal(decimal.NewFromInt(5)) {
		t.Errorf("Expected waste 5, got %s", line.WastePercentage)
	}
	if len(line.Substitutes) != 1 || line.Substitutes[0].SubstituteProductID != "D" {
		t.Fatalf("Expected substitute D, got %+v", line.Substitutes)
	}
	if !line.Substitutes[0].IsMixAllowed || !line.Substitutes[0].MaxMixPercentage.Equal(decimal.NewFromInt(40)) {
		t.Errorf("Unexpected substitute mix settings: %+v", line.Substitutes[0])
	}
}

func TestLoader_SubstitutesFileIsOptional(t *testing.T) {
	dataset, err := NewLoader().LoadDir(writeDataset(t, false))
	if err != nil {
		t.Fatalf("Failed to load dataset: %v", err)
	}
	if len(dataset.Headers[1].Details[0].Substitutes) != 0 {
		t.Error("Expected no substitutes")
	}
}

func TestLoader_LoadFormulasWithoutMasterData(t *testing.T) {
	dir := writeDataset(t, false)
	if err := os.Remove(filepath.Join(dir, UnitsFile)); err != nil {
		t.Fatalf("Failed to remove units file: %v", err)
	}
	if err := os.Remove(filepath.Join(dir, ProductsFile)); err != nil {
		t.Fatalf("Failed to remove products file: %v", err)
	}

	headers, err := NewLoader().LoadFormulas(dir)
	if err != nil {
		t.Fatalf("Failed to load formulas: %v", err)
	}
	if len(headers) != 2 || headers[0].ID != "H-A" || len(headers[0].Details) != 1 {
		t.Errorf("Expected H-A and H-B with their lines, got %+v", headers)
	}
}

func TestLoader_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr string
	}{
		{
			name:    "header mismatch",
			file:    ProductsFile,
			content: "id,code,name\nA,P-A,Bicycle\n",
			wantErr: "products CSV header mismatch",
		},
		{
			name:    "bad supply type",
			file:    ProductsFile,
			content: "id,code,name,unit_id,supply_type\nA,P-A,Bicycle,u-ea,Stolen\n",
			wantErr: "products CSV row 2: invalid supply type",
		},
		{
			name:    "column count",
			file:    UnitsFile,
			content: "id,title,symbol,base_unit_id,conversion_factor\nu-ea,each\n",
			wantErr: "units CSV row 2: expected 5 columns, got 2",
		},
		{
			name:    "bad quantity",
			file:    DetailsFile,
			content: "id,bom_header_id,child_product_id,quantity,waste_percentage,input_quantity,input_unit_id\nL-1,H-A,B,two,,,\n",
			wantErr: "BOM details CSV row 2: invalid quantity: two",
		},
		{
			name:    "unknown header",
			file:    DetailsFile,
			content: "id,bom_header_id,child_product_id,quantity,waste_percentage,input_quantity,input_unit_id\nL-1,H-Z,B,2,,,\n",
			wantErr: "BOM details CSV row 2: unknown header H-Z",
		},
		{
			name:    "bad date",
			file:    HeadersFile,
			content: "id,product_id,title,version,status,type,from_date,to_date,is_active\nH-A,A,Bicycle,1.0,Active,Manufacturing,01/01/2024,,true\n",
			wantErr: "BOM headers CSV row 2: invalid from_date format",
		},
		{
			name:    "unknown line",
			file:    SubstitutesFile,
			content: "id,bom_detail_id,substitute_product_id,priority,factor,is_mix_allowed,max_mix_percentage\nS-1,L-9,D,1,1,false,0\n",
			wantErr: "BOM substitutes CSV row 2: unknown line L-9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeDataset(t, true)
			writeFile(t, dir, tt.file, tt.content)

			_, err := NewLoader().LoadDir(dir)
			if err == nil {
				t.Fatalf("Expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoader_MissingFile(t *testing.T) {
	_, err := NewLoader().LoadDir(t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "failed to open units file") {
		t.Errorf("Expected open error, got %v", err)
	}
}

func TestDataset_SeedIntoMemory(t *testing.T) {
	dataset, err := NewLoader().LoadDir(writeDataset(t, true))
	if err != nil {
		t.Fatalf("Failed to load dataset: %v", err)
	}

	repo := memory.NewRepository()
	ctx := context.Background()
	if err := dataset.Seed(ctx, repo, repo, repo); err != nil {
		t.Fatalf("Failed to seed: %v", err)
	}

	header, err := repo.GetActiveHeader(ctx, "B")
	if err != nil || header == nil {
		t.Fatalf("Expected active formula for B, got %v, %v", header, err)
	}
	if header.ID != "H-B" || header.Details[0].ID != "L-2" {
		t.Errorf("Expected ids to be kept, got %s / %s", header.ID, header.Details[0].ID)
	}
	if header.Details[0].Substitutes[0].SubstituteProduct.Name != "Steel spoke" {
		t.Errorf("Expected substitute product to resolve, got %+v", header.Details[0].Substitutes[0].SubstituteProduct)
	}
}
