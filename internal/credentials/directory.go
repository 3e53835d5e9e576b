package credentials

import (
	"context"
	"log/slog"
	"strings"

	dErrors "publizon-adapter/pkg/domain-errors"
	"publizon-adapter/pkg/requestcontext"
)

// Directory is the static credential mapping, loaded once at process start
// and read-only afterwards, so lookups need no synchronization.
type Directory struct {
	records map[string]Credentials
	logger  *slog.Logger
}

// NewDirectory parses CSV lines of "agencyId,licenseKey,retailerId". Blank
// lines are skipped; short lines yield incomplete records that fail lookup
// the same way a missing agency does.
func NewDirectory(csv string, logger *slog.Logger) *Directory {
	records := make(map[string]Credentials)
	for line := range strings.Lines(csv) {
		fields := strings.Split(strings.TrimRight(line, "\r\n"), ",")
		if len(fields) == 0 || strings.TrimSpace(fields[0]) == "" {
			continue
		}
		record := Credentials{}
		if len(fields) > 1 {
			record.LicenseKey = strings.TrimSpace(fields[1])
		}
		if len(fields) > 2 {
			record.RetailerID = strings.TrimSpace(fields[2])
		}
		records[strings.TrimSpace(fields[0])] = record
	}
	return &Directory{records: records, logger: logger}
}

// Lookup returns the credential record for an agency. Missing and incomplete
// records are both forbidden.
func (d *Directory) Lookup(ctx context.Context, agencyID string) (Credentials, error) {
	record, ok := d.records[agencyID]
	if !ok || !record.Complete() {
		d.logger.InfoContext(ctx, "agency is missing Publizon credentials",
			"req_id", requestcontext.RequestID(ctx),
			"agency_id", agencyID,
		)
		return Credentials{}, dErrors.New(dErrors.KindMissingCredentials,
			"Agency is missing Publizon credentials")
	}
	return record, nil
}

// Size returns the number of configured agencies. Used for startup logging.
func (d *Directory) Size() int {
	return len(d.records)
}
