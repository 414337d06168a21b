package registry

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

const testSheet = "StockList"

// writeWorkbook creates a registry workbook for tests. rows are
// [symbol, investing, yahoo, jitta, filename]; boolean symbol cells mimic
// spreadsheet coercion of "TRUE" tickers.
func writeWorkbook(t *testing.T, rows [][]any) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", testSheet); err != nil {
		t.Fatalf("failed to rename sheet: %v", err)
	}

	header := []any{"Symbol", "Investing", "Yahoo", "Jitta", "Filename"}
	if err := f.SetSheetRow(testSheet, "A1", &header); err != nil {
		t.Fatalf("failed to write header: %v", err)
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(testSheet, cell, &row); err != nil {
			t.Fatalf("failed to write row %d: %v", i, err)
		}
	}

	path := filepath.Join(t.TempDir(), "stock_list.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("failed to save workbook: %v", err)
	}
	return path
}

func TestLoad_NormalizesSymbolsToUppercase(t *testing.T) {
	path := writeWorkbook(t, [][]any{
		{"aot", "AOT", "AOT", "aot", "AOT"},
	})

	reg, err := Load(path, testSheet)
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	entry, ok := reg.Lookup("AOT")
	if !ok {
		t.Fatal("Lookup(AOT) not found, want entry for lowercased sheet row")
	}
	if entry.Symbol != "AOT" {
		t.Errorf("entry.Symbol = %q, want AOT", entry.Symbol)
	}
	if _, ok := reg.Lookup("aot"); !ok {
		t.Error("Lookup(aot) should be case-insensitive")
	}
}

func TestLoad_ExcludesBooleanSentinelRow(t *testing.T) {
	path := writeWorkbook(t, [][]any{
		{"AAA", "AAA", "AAA", "aaa", "AAA"},
		{true, "TRUE", "TRUE", "TRUE", "TRUE"},
	})

	reg, err := Load(path, testSheet)
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if _, ok := reg.Lookup("TRUE"); ok {
		t.Error("Lookup(TRUE) found sentinel row, want it excluded from universe")
	}
	if reg.Len() != 1 {
		t.Errorf("Len() = %d, want 1", reg.Len())
	}
}

func TestLoad_FilenameDefaultsToSymbol(t *testing.T) {
	path := writeWorkbook(t, [][]any{
		{"BBB", "BBB", "BBB", "bbb", ""},
		{"CCC", "CCC", "CCC", "ccc", "ccc-renamed"},
	})

	reg, err := Load(path, testSheet)
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	entry, _ := reg.Lookup("BBB")
	if entry.Filename != "BBB" {
		t.Errorf("Filename = %q, want symbol fallback BBB", entry.Filename)
	}

	if symbol, ok := reg.SymbolForFilename("ccc-renamed"); !ok || symbol != "CCC" {
		t.Errorf("SymbolForFilename(ccc-renamed) = %q, %v; want CCC, true", symbol, ok)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.xlsx"), testSheet)
	if err == nil {
		t.Fatal("Load() expected error for missing file, got nil")
	}

	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Errorf("Load() error = %T, want *LoadError", err)
	}
}

func TestLoad_MissingSheet(t *testing.T) {
	path := writeWorkbook(t, [][]any{
		{"AAA", "AAA", "AAA", "aaa", "AAA"},
	})

	_, err := Load(path, "WrongSheet")
	if err == nil {
		t.Fatal("Load() expected error for missing sheet, got nil")
	}

	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Errorf("Load() error = %T, want *LoadError", err)
	}
}

func TestLoad_MissingColumn(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", testSheet); err != nil {
		t.Fatalf("failed to rename sheet: %v", err)
	}
	header := []any{"Symbol", "Investing", "Yahoo"}
	if err := f.SetSheetRow(testSheet, "A1", &header); err != nil {
		t.Fatalf("failed to write header: %v", err)
	}
	path := filepath.Join(t.TempDir(), "stock_list.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("failed to save workbook: %v", err)
	}

	if _, err := Load(path, testSheet); err == nil {
		t.Error("Load() expected error for missing required columns, got nil")
	}
}

func TestSymbols_SortedAndStable(t *testing.T) {
	path := writeWorkbook(t, [][]any{
		{"CCC", "CCC", "CCC", "ccc", "CCC"},
		{"AAA", "AAA", "AAA", "aaa", "AAA"},
		{"BBB", "BBB", "BBB", "bbb", "BBB"},
	})

	reg, err := Load(path, testSheet)
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	want := []string{"AAA", "BBB", "CCC"}
	got := reg.Symbols()
	if len(got) != len(want) {
		t.Fatalf("Symbols() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Symbols()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
