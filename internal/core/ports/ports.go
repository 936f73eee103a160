package ports

import (
	"context"

	"github.com/lcalzada-xor/devcert/internal/core/domain"
)

// DeviceSource defines the interface for inventory adapters.
// Collect returns either every device of the inventory or an error, never a
// partial list.
type DeviceSource interface {
	// Name identifies the origin, e.g. "csv" or "panorama".
	Name() string
	Collect(ctx context.Context) ([]domain.Device, error)
}

// ReportExporter renders a classified report into a document.
type ReportExporter interface {
	Export(report *domain.Report) ([]byte, error)
}
