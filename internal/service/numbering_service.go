package service

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	appErrors "github.com/enrollease/enrollease-api/pkg/errors"
)

// yearPrefixPattern accepts a two or four digit year followed by a dash.
var yearPrefixPattern = regexp.MustCompile(`^\d{2,4}-$`)

type numberSource interface {
	MaxNumberForPrefix(ctx context.Context, prefix string) (string, error)
}

// NumberingService derives the next sequential student number for a year
// prefix by scanning the greatest existing number and incrementing it.
//
// Lookup failures are surfaced to the caller. The system this replaces
// swallowed them and handed out "<prefix>0001" regardless, which can collide
// with an existing student when the store comes back.
type NumberingService struct {
	students    numberSource
	suffixWidth int
	logger      *zap.Logger
}

// NewNumberingService constructs the service. suffixWidth <= 0 defaults to 4.
func NewNumberingService(students numberSource, suffixWidth int, logger *zap.Logger) *NumberingService {
	if suffixWidth <= 0 {
		suffixWidth = 4
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NumberingService{students: students, suffixWidth: suffixWidth, logger: logger}
}

// Next returns the next unused student number for the given prefix,
// zero-padded to the configured width. An empty store yields "<prefix>0001".
func (s *NumberingService) Next(ctx context.Context, prefix string) (string, error) {
	if !yearPrefixPattern.MatchString(prefix) {
		return "", appErrors.Clone(appErrors.ErrValidation, "year prefix must match YY- or YYYY-")
	}

	max, err := s.students.MaxNumberForPrefix(ctx, prefix)
	if err != nil {
		if err == sql.ErrNoRows {
			return prefix + s.pad(1), nil
		}
		s.logger.Error("student number scan failed", zap.String("prefix", prefix), zap.Error(err))
		return "", appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to scan student numbers")
	}

	suffix := strings.TrimPrefix(max, prefix)
	n, err := strconv.Atoi(suffix)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("malformed student number %q", max))
	}

	return prefix + s.pad(n+1), nil
}

func (s *NumberingService) pad(n int) string {
	return fmt.Sprintf("%0*d", s.suffixWidth, n)
}
