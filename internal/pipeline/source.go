package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/klytics/rosterfmt/internal/formats/xls"
	"github.com/klytics/rosterfmt/internal/graph"
	"github.com/klytics/rosterfmt/internal/profile"
	"github.com/klytics/rosterfmt/internal/roster"
)

// ErrReportNotFound is returned when a source has nothing for a report.
var ErrReportNotFound = errors.New("report not found")

// Source supplies the raw grid for a report.
type Source interface {
	Grid(ctx context.Context, report *profile.Report) (*roster.Grid, error)
}

// FileSource reads reports from local .xls files keyed by report ID.
type FileSource struct {
	Paths map[string]string
}

// Grid implements Source.
func (s FileSource) Grid(ctx context.Context, report *profile.Report) (*roster.Grid, error) {
	path, ok := s.Paths[report.ID]
	if !ok {
		return nil, fmt.Errorf("%w: no file given for report %q", ErrReportNotFound, report.ID)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log.Debug().Str("report", report.ID).Str("file", path).Msg("reading report file")
	return xls.ReadFile(path)
}

// Mailbox is the slice of the Outlook client MailSource needs.
type Mailbox interface {
	FindAttachment(ctx context.Context, filter graph.InboxFilter, match func(name string) bool) (*graph.Found, error)
	MarkAsRead(ctx context.Context, messageID string) error
}

// MailSource pulls the newest matching report attachment out of a mailbox.
type MailSource struct {
	Mail Mailbox
	// Since is the oldest message date considered.
	Since time.Time
	// SaveDir, when set, receives a copy of every attachment used.
	SaveDir  string
	MarkRead bool

	// Fetched records what was pulled, keyed by report ID.
	Fetched map[string]graph.Found
}

// Grid implements Source.
func (s *MailSource) Grid(ctx context.Context, report *profile.Report) (*roster.Grid, error) {
	subject := report.Mail.Subject
	if subject == "" {
		subject = report.ID
	}

	found, err := s.Mail.FindAttachment(ctx, graph.InboxFilter{
		From:    report.Mail.From,
		Subject: subject,
		Since:   s.Since,
		Limit:   50,
	}, func(name string) bool {
		return attachmentMatches(report, name)
	})
	if err != nil {
		if errors.Is(err, graph.ErrNoAttachment) {
			return nil, fmt.Errorf("%w: report %q: %v", ErrReportNotFound, report.ID, err)
		}
		return nil, fmt.Errorf("report %q: %w", report.ID, err)
	}

	log.Info().
		Str("report", report.ID).
		Str("attachment", found.Attachment.Name).
		Time("received", found.Message.ReceivedAt).
		Msg("fetched report from mailbox")

	if s.SaveDir != "" {
		path, err := graph.SaveAttachment(s.SaveDir, found.Attachment.Name, found.Data)
		if err != nil {
			return nil, err
		}
		log.Debug().Str("path", path).Msg("saved attachment")
	}

	grid, err := xls.ReadBytes(found.Attachment.Name, found.Data)
	if err != nil {
		return nil, err
	}

	if s.MarkRead {
		if err := s.Mail.MarkAsRead(ctx, found.Message.ID); err != nil {
			return nil, err
		}
	}

	if s.Fetched == nil {
		s.Fetched = make(map[string]graph.Found)
	}
	fetched := *found
	fetched.Data = nil
	s.Fetched[report.ID] = fetched
	return grid, nil
}

func attachmentMatches(report *profile.Report, name string) bool {
	if !graph.IsXLSAttachment(name) {
		return false
	}
	if report.FilePattern == "" {
		return true
	}
	ok, _ := filepath.Match(report.FilePattern, filepath.Base(name))
	return ok
}
