package pkg

import (
	"errors"
	"fmt"
	"testing"

	"gorm.io/gorm"

	"github.com/simp-lee/medibook/internal/domain"
)

func TestMapDBError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "record not found", err: gorm.ErrRecordNotFound, want: domain.CodeNotFound},
		{name: "wrapped not found", err: fmt.Errorf("query: %w", gorm.ErrRecordNotFound), want: domain.CodeNotFound},
		{name: "translated duplicate", err: gorm.ErrDuplicatedKey, want: domain.CodeAlreadyExists},
		{name: "sqlite unique message", err: errors.New("constraint failed: UNIQUE constraint failed: users.dni (2067)"), want: domain.CodeAlreadyExists},
		{name: "postgres duplicate message", err: errors.New(`ERROR: duplicate key value violates unique constraint "idx_users_email"`), want: domain.CodeAlreadyExists},
		{name: "foreign key", err: errors.New("FOREIGN KEY constraint failed"), want: domain.CodeNotFound},
		{name: "other", err: errors.New("disk I/O error"), want: domain.CodeInternal},
		{name: "app error passes through", err: domain.ErrDuplicatedDate, want: domain.CodeDuplicatedDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var appErr *domain.AppError
			if !errors.As(MapDBError(tt.err), &appErr) {
				t.Fatalf("MapDBError(%v) did not return an AppError", tt.err)
			}
			if appErr.Code != tt.want {
				t.Errorf("code = %d, want %d", appErr.Code, tt.want)
			}
		})
	}

	if MapDBError(nil) != nil {
		t.Error("MapDBError(nil) != nil")
	}
}
