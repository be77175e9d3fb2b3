package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/devplayground/playground/pkg/core"
)

// maxNameSuffix bounds the search for a free "<name> (n)" variant.
const maxNameSuffix = 1000

// SaveSnippet stores a new snippet for ownerID. Names are unique per owner.
func (s *SQLStore) SaveSnippet(ctx context.Context, ownerID, name string, tags []string, bundle core.SourceBundle) (*core.Snippet, error) {
	name = normalizeName(name)

	taken, err := s.nameTaken(ctx, ownerID, name)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, core.ErrDuplicateName
	}

	tags = cleanTags(tags)
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tags: %w", err)
	}

	now := s.now()
	sn := &core.Snippet{
		ID:        generateID(),
		OwnerID:   ownerID,
		Name:      name,
		Tags:      tags,
		Bundle:    bundle,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err = s.exec(ctx, `
		INSERT INTO snippets (id, owner_id, name, tags, html, css, js, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sn.ID, sn.OwnerID, sn.Name, string(tagsJSON),
		bundle.Markup, bundle.Style, bundle.Script,
		toUnix(now), toUnix(now))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, core.ErrDuplicateName
		}
		return nil, fmt.Errorf("failed to save snippet: %w", err)
	}

	s.logger.Debug("snippet saved", "snippet_id", sn.ID, "owner_id", ownerID)
	return sn, nil
}

// ListSnippets returns the owner's snippets, newest first.
func (s *SQLStore) ListSnippets(ctx context.Context, ownerID string) ([]*core.Snippet, error) {
	rows, err := s.query(ctx, `
		SELECT id, owner_id, name, tags, html, css, js, created_at, updated_at
		FROM snippets
		WHERE owner_id = ?
		ORDER BY created_at DESC, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list snippets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	snippets := []*core.Snippet{}
	for rows.Next() {
		sn, err := scanSnippet(rows)
		if err != nil {
			return nil, err
		}
		snippets = append(snippets, sn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate snippets: %w", err)
	}
	return snippets, nil
}

// GetSnippet returns one snippet owned by ownerID.
func (s *SQLStore) GetSnippet(ctx context.Context, ownerID, id string) (*core.Snippet, error) {
	row := s.queryRow(ctx, `
		SELECT id, owner_id, name, tags, html, css, js, created_at, updated_at
		FROM snippets
		WHERE id = ? AND owner_id = ?`, id, ownerID)

	sn, err := scanSnippet(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	return sn, err
}

// DeleteSnippet removes a snippet. A snippet owned by someone else is
// reported as core.ErrNotFound.
func (s *SQLStore) DeleteSnippet(ctx context.Context, ownerID, id string) error {
	res, err := s.exec(ctx, `DELETE FROM snippets WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete snippet: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete snippet: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// NextAvailableName returns name itself when free, otherwise the first
// free "<name> (n)" starting at n = 2.
func (s *SQLStore) NextAvailableName(ctx context.Context, ownerID, name string) (string, error) {
	name = normalizeName(name)

	taken, err := s.nameTaken(ctx, ownerID, name)
	if err != nil || !taken {
		return name, err
	}

	for n := 2; n <= maxNameSuffix; n++ {
		candidate := fmt.Sprintf("%s (%d)", name, n)
		taken, err := s.nameTaken(ctx, ownerID, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return fmt.Sprintf("%s (%s)", name, generateID()[:8]), nil
}

func (s *SQLStore) nameTaken(ctx context.Context, ownerID, name string) (bool, error) {
	var one int
	err := s.queryRow(ctx, `SELECT 1 FROM snippets WHERE owner_id = ? AND name = ?`, ownerID, name).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check snippet name: %w", err)
	}
	return true, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnippet(row rowScanner) (*core.Snippet, error) {
	var (
		sn                   core.Snippet
		tagsJSON             string
		createdAt, updatedAt int64
	)
	err := row.Scan(&sn.ID, &sn.OwnerID, &sn.Name, &tagsJSON,
		&sn.Bundle.Markup, &sn.Bundle.Style, &sn.Bundle.Script,
		&createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan snippet: %w", err)
	}

	sn.Tags = []string{}
	if tagsJSON != "" {
		if err := json.Unmarshal([]byte(tagsJSON), &sn.Tags); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
		}
	}
	sn.CreatedAt = fromUnix(createdAt)
	sn.UpdatedAt = fromUnix(updatedAt)
	return &sn, nil
}

func normalizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.DefaultSnippetName
	}
	return name
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
