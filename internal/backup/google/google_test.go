package google

import (
	"context"
	"strings"
	"testing"

	"tally/internal/core"
)

func TestRowValues(t *testing.T) {
	tx := core.Transaction{
		ID:          7,
		Date:        core.NewDate(2024, 1, 5),
		Amount:      core.Money{Cents: -5000},
		Category:    "Groceries",
		Description: "weekly shop",
	}

	row := rowValues(tx)
	if len(row) != 5 {
		t.Fatalf("row has %d cells, want 5", len(row))
	}
	if row[0] != int64(7) {
		t.Errorf("id cell = %v", row[0])
	}
	if row[1] != "2024-01-05" {
		t.Errorf("date cell = %v", row[1])
	}
	if row[2] != -50.00 {
		t.Errorf("amount cell = %v, want -50.00", row[2])
	}
	if row[3] != "Groceries" || row[4] != "weekly shop" {
		t.Errorf("category/description cells = %v, %v", row[3], row[4])
	}
}

func TestNewFromEnvRequiresSpreadsheetID(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")

	_, err := NewFromEnv(context.Background())
	if err == nil || !strings.Contains(err.Error(), "GOOGLE_SPREADSHEET_ID") {
		t.Fatalf("err = %v, want missing spreadsheet id", err)
	}
}

func TestNewFromEnvRequiresCredentials(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "sheet-123")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	_, err := NewFromEnv(context.Background())
	if err == nil || !strings.Contains(err.Error(), "service account credentials") {
		t.Fatalf("err = %v, want missing credentials", err)
	}
}

func TestAppendTransactionValidates(t *testing.T) {
	c := &Client{spreadsheetID: "sheet-123", sheetName: "Transactions"}

	_, err := c.AppendTransaction(context.Background(), core.Transaction{})
	if err == nil || !strings.Contains(err.Error(), "validation failed") {
		t.Fatalf("err = %v, want validation failure", err)
	}
}
