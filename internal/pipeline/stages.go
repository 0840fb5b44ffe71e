package pipeline

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/IshaanNene/newsetl/internal/lang"
	"github.com/IshaanNene/newsetl/internal/types"
)

// ErrNoNewspaperUID is returned when a table carries no site identity.
var ErrNoNewspaperUID = errors.New("table has no newspaper uid")

// NewspaperUIDStage fills newspaper_uid from the table manifest.
type NewspaperUIDStage struct{}

func (s *NewspaperUIDStage) Name() string { return "newspaper_uid" }

func (s *NewspaperUIDStage) Apply(_ context.Context, t *types.Table) (*types.Table, error) {
	if t.Manifest == nil || t.Manifest.NewspaperUID == "" {
		return nil, ErrNoNewspaperUID
	}
	t.AddColumn(types.ColumnNewspaperUID)
	for _, row := range t.Rows {
		row.Set(types.ColumnNewspaperUID, t.Manifest.NewspaperUID)
	}
	return t, nil
}

// HostStage fills host with the network location of each row's url.
type HostStage struct{}

func (s *HostStage) Name() string { return "host" }

func (s *HostStage) Apply(_ context.Context, t *types.Table) (*types.Table, error) {
	t.AddColumn(types.ColumnHost)
	for _, row := range t.Rows {
		host := netloc(row.GetString(types.ColumnURL))
		if host == "" {
			row.Delete(types.ColumnHost)
			continue
		}
		row.Set(types.ColumnHost, host)
	}
	return t, nil
}

// netloc returns the authority component of rawURL, including any userinfo,
// or "" when there is none.
func netloc(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	if u.User != nil {
		return u.User.String() + "@" + u.Host
	}
	return u.Host
}

var lastPathSegment = regexp.MustCompile(`[^/]+$`)

// MissingTitleStage derives a title from the url slug for rows without one.
// Rows that already have a title are never touched.
type MissingTitleStage struct{}

func (s *MissingTitleStage) Name() string { return "missing_titles" }

func (s *MissingTitleStage) Apply(_ context.Context, t *types.Table) (*types.Table, error) {
	t.AddColumn(types.ColumnTitle)
	if !t.AnyMissing(types.ColumnTitle) {
		return t, nil
	}
	for _, row := range t.Rows {
		if row.Has(types.ColumnTitle) {
			continue
		}
		if title := TitleFromURL(row.GetString(types.ColumnURL)); title != "" {
			row.Set(types.ColumnTitle, title)
		}
	}
	return t, nil
}

// TitleFromURL turns the last path segment of rawURL into words:
// "http://x.com/breaking-news-today" becomes "breaking news today".
func TitleFromURL(rawURL string) string {
	slug := lastPathSegment.FindString(rawURL)
	return strings.Join(strings.Split(slug, "-"), " ")
}

// UIDStage keys every row by the hex MD5 digest of its url.
type UIDStage struct{}

func (s *UIDStage) Name() string { return "uid" }

func (s *UIDStage) Apply(_ context.Context, t *types.Table) (*types.Table, error) {
	t.AddColumn(types.ColumnUID)
	for _, row := range t.Rows {
		u, ok := row.Get(types.ColumnURL)
		if !ok {
			row.Delete(types.ColumnUID)
			continue
		}
		row.Set(types.ColumnUID, UID(u))
	}
	return t, nil
}

// UID returns the row identity for rawURL.
func UID(rawURL string) string {
	sum := md5.Sum([]byte(rawURL))
	return hex.EncodeToString(sum[:])
}

// StripNewlinesStage removes every "\n" from a text column.
type StripNewlinesStage struct {
	Column string
}

func (s *StripNewlinesStage) Name() string { return "strip_newlines_" + s.Column }

func (s *StripNewlinesStage) Apply(_ context.Context, t *types.Table) (*types.Table, error) {
	for _, row := range t.Rows {
		v, ok := row.Get(s.Column)
		if !ok {
			continue
		}
		v = strings.ReplaceAll(v, "\n", "")
		if v == "" {
			row.Delete(s.Column)
			continue
		}
		row.Set(s.Column, v)
	}
	return t, nil
}

// TokenCountStage records in Target the number of meaningful tokens in
// Column. Only rows with no missing value are counted; the others get a
// missing count.
type TokenCountStage struct {
	Column    string
	Target    string
	Resources *lang.Resources
}

func (s *TokenCountStage) Name() string { return "tokenize_" + s.Column }

func (s *TokenCountStage) Apply(ctx context.Context, t *types.Table) (*types.Table, error) {
	if !t.HasColumn(s.Column) {
		return nil, fmt.Errorf("%w: %s", types.ErrMissingColumn, s.Column)
	}

	complete := make([]bool, len(t.Rows))
	for i, row := range t.Rows {
		complete[i] = t.Complete(row)
	}

	t.AddColumn(s.Target)
	for i, row := range t.Rows {
		if i%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if !complete[i] {
			row.Delete(s.Target)
			continue
		}
		n := s.Resources.CountTokens(row.GetString(s.Column))
		row.Set(s.Target, strconv.Itoa(n))
	}
	return t, nil
}

// DedupStage keeps the first row for every value of Column. Rows missing
// the column share a single key.
type DedupStage struct {
	Column string
}

func (s *DedupStage) Name() string { return "dedup_" + s.Column }

func (s *DedupStage) Apply(_ context.Context, t *types.Table) (*types.Table, error) {
	type key struct {
		value   string
		missing bool
	}

	seen := make(map[key]struct{}, len(t.Rows))
	kept := t.Rows[:0]
	for _, row := range t.Rows {
		v, ok := row.Get(s.Column)
		k := key{value: v, missing: !ok}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		kept = append(kept, row)
	}
	t.Rows = kept
	return t, nil
}

// DropIncompleteStage removes every row that has a missing value in any
// column.
type DropIncompleteStage struct {
	Logger *slog.Logger
}

func (s *DropIncompleteStage) Name() string { return "drop_incomplete" }

func (s *DropIncompleteStage) Apply(_ context.Context, t *types.Table) (*types.Table, error) {
	kept := t.Rows[:0]
	for _, row := range t.Rows {
		if t.Complete(row) {
			kept = append(kept, row)
			continue
		}
		if s.Logger != nil {
			s.Logger.Warn("dropping row with missing values",
				"url", row.GetString(types.ColumnURL),
				"missing", missingColumns(t, row),
			)
		}
	}
	t.Rows = kept
	return t, nil
}

func missingColumns(t *types.Table, row *types.Row) []string {
	var missing []string
	for _, col := range t.Columns {
		if !row.Has(col) {
			missing = append(missing, col)
		}
	}
	return missing
}

// SelectColumnsStage reorders the layout to Schema. Columns outside the
// schema are removed.
type SelectColumnsStage struct {
	Schema types.Schema
}

func (s *SelectColumnsStage) Name() string { return "select_columns" }

func (s *SelectColumnsStage) Apply(_ context.Context, t *types.Table) (*types.Table, error) {
	for _, col := range s.Schema.Columns {
		if !t.HasColumn(col) {
			return nil, fmt.Errorf("%w: %s", types.ErrMissingColumn, col)
		}
	}
	for _, row := range t.Rows {
		for _, col := range t.Columns {
			if !s.Schema.Has(col) {
				row.Delete(col)
			}
		}
	}
	t.Columns = append([]string(nil), s.Schema.Columns...)
	return t, nil
}
