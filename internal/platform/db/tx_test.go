package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestTxFromContext_Empty(t *testing.T) {
	if tx := TxFromContext(context.Background()); tx != nil {
		t.Errorf("expected nil tx, got %v", tx)
	}
}

func TestTxFromContext_WrongType(t *testing.T) {
	ctx := context.WithValue(context.Background(), txKey{}, "not a tx")
	if tx := TxFromContext(ctx); tx != nil {
		t.Errorf("expected nil tx for wrong type, got %v", tx)
	}
}

func TestConn_FallsBackToPool(t *testing.T) {
	q := Conn(context.Background(), nil)
	if q == nil {
		t.Fatal("expected non-nil querier interface value")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	err := &pgconn.PgError{Code: "23505", ConstraintName: "tickets_ticket_number_key"}

	if !IsUniqueViolation(err, "") {
		t.Error("expected unique violation for any constraint")
	}
	if !IsUniqueViolation(err, "tickets_ticket_number_key") {
		t.Error("expected unique violation for named constraint")
	}
	if IsUniqueViolation(err, "other_key") {
		t.Error("expected false for different constraint")
	}
	wrapped := errors.Join(errors.New("insert ticket"), err)
	if !IsUniqueViolation(wrapped, "") {
		t.Error("expected wrapped error to be detected")
	}
	if IsUniqueViolation(&pgconn.PgError{Code: "23503"}, "") {
		t.Error("expected false for foreign key violation")
	}
	if IsUniqueViolation(errors.New("boom"), "") {
		t.Error("expected false for plain error")
	}
}
