package core

import (
	"errors"
	"testing"
)

func TestValidateCatalogRecord(t *testing.T) {
	tests := []struct {
		name    string
		record  CatalogRecord
		wantErr error
	}{
		{
			name:    "valid record",
			record:  CatalogRecord{ItemID: "Ibuprofen", Tags: []string{"fever", "headache"}},
			wantErr: nil,
		},
		{
			name:    "single tag",
			record:  CatalogRecord{ItemID: "Loratadine", Tags: []string{"rash"}},
			wantErr: nil,
		},
		{
			name:    "empty item id",
			record:  CatalogRecord{ItemID: "", Tags: []string{"fever"}},
			wantErr: ErrEmptyItemID,
		},
		{
			name:    "nil tags",
			record:  CatalogRecord{ItemID: "Aspirin"},
			wantErr: ErrEmptyTags,
		},
		{
			name:    "blank tag",
			record:  CatalogRecord{ItemID: "Aspirin", Tags: []string{"fever", ""}},
			wantErr: ErrEmptyTag,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCatalogRecord(tt.record)

			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateCatalogRecord() error = %v, want nil", err)
				}
				return
			}

			if err == nil {
				t.Errorf("ValidateCatalogRecord() error = nil, want %v", tt.wantErr)
				return
			}

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateCatalogRecord() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrInvalidCatalogRecord) {
				t.Errorf("ValidateCatalogRecord() error = %v, want wrapped %v", err, ErrInvalidCatalogRecord)
			}
		})
	}
}

func TestValidateCatalog(t *testing.T) {
	tests := []struct {
		name    string
		records []CatalogRecord
		wantErr error
	}{
		{
			name: "valid catalog",
			records: []CatalogRecord{
				{ItemID: "DrugA", Tags: []string{"fever", "cough"}},
				{ItemID: "DrugB", Tags: []string{"cough", "sore_throat"}},
			},
		},
		{
			name:    "empty catalog",
			records: nil,
			wantErr: ErrEmptyCorpus,
		},
		{
			name: "invalid record",
			records: []CatalogRecord{
				{ItemID: "DrugA", Tags: []string{"fever"}},
				{ItemID: "DrugB"},
			},
			wantErr: ErrEmptyTags,
		},
		{
			name: "duplicate item id",
			records: []CatalogRecord{
				{ItemID: "DrugA", Tags: []string{"fever"}},
				{ItemID: "DrugA", Tags: []string{"cough"}},
			},
			wantErr: ErrDuplicateItemID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCatalog(tt.records)

			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateCatalog() error = %v, want nil", err)
				}
				return
			}

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateCatalog() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
