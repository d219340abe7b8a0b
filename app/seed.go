package app

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Seed reads tab-separated name/description lines (the first line is a
// header) and creates one account per line. It stops after limit accounts
// when limit > 0 and returns how many were created.
func (a *App) Seed(ctx context.Context, r io.Reader, limit int) (int, error) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return 0, nil
		}
		return 0, fmt.Errorf("could not read seed header: %w", err)
	}

	created := 0
	for limit <= 0 || created < limit {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return created, fmt.Errorf("could not read seed line: %w", err)
		}

		name := strings.TrimSpace(record[0])
		if name == "" {
			continue
		}
		if _, err := a.Accounts.CreateAccount(ctx, name); err != nil {
			return created, fmt.Errorf("could not create account %q: %w", name, err)
		}
		created++
	}

	a.Log.WithField("accounts", created).Info("Seeding finished")
	return created, nil
}
