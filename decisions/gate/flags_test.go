// Copyright 2025 AxonFlow
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package gate

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPostgresFlagStoreEnabled(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT enabled FROM ai_feature_flags").
		WithArgs("garage-1", "insights").
		WillReturnRows(sqlmock.NewRows([]string{"enabled"}).AddRow(false))

	store := NewPostgresFlagStore(db)
	enabled, err := store.Enabled(context.Background(), "garage-1", "insights")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if enabled {
		t.Error("expected disabled flag")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

// A tenant with no flag row gets the feature: flags are an opt-out mechanism.
func TestPostgresFlagStoreDefaultsToEnabled(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT enabled FROM ai_feature_flags").
		WithArgs("garage-1", "insights").
		WillReturnRows(sqlmock.NewRows([]string{"enabled"}))

	store := NewPostgresFlagStore(db)
	enabled, err := store.Enabled(context.Background(), "garage-1", "insights")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !enabled {
		t.Error("absent row must default to enabled")
	}
}

func TestPostgresFlagStoreQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT enabled FROM ai_feature_flags").
		WithArgs("garage-1", "insights").
		WillReturnError(errors.New("connection refused"))

	store := NewPostgresFlagStore(db)
	if _, err := store.Enabled(context.Background(), "garage-1", "insights"); err == nil {
		t.Error("expected error to propagate")
	}
}

func TestPostgresFlagStoreSetEnabled(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectExec("INSERT INTO ai_feature_flags").
		WithArgs("garage-1", "insights", false).
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := NewPostgresFlagStore(db)
	if err := store.SetEnabled(context.Background(), "garage-1", "insights", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestFlagStoreEnsureSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS ai_feature_flags").
		WillReturnResult(sqlmock.NewResult(0, 0))

	store := NewPostgresFlagStore(db)
	if err := store.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestFlagStoreEnsureSchemaError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS ai_feature_flags").
		WillReturnError(errors.New("permission denied for schema public"))

	store := NewPostgresFlagStore(db)
	if err := store.EnsureSchema(context.Background()); err == nil {
		t.Fatal("expected error, got nil")
	}
}
