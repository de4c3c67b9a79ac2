package exportfile

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/beaverport/pkg/types"
)

// Build fetches every exported collection from src and assembles a
// current-schema export document.
func Build(ctx context.Context, src types.Source, userID string, now time.Time, log logrus.FieldLogger) (*types.Export, error) {
	version := types.CurrentAPIVersion
	export := &types.Export{
		ExportedOn: types.NewTimestamp(now),
		APIVersion: &version,
		UserID:     userID,
	}
	for _, c := range types.ExportCollections {
		records, err := src.Fetch(ctx, c.Entity)
		if err != nil {
			return nil, fmt.Errorf("fetching %s: %w", c.Name, err)
		}
		if err := export.Data.Set(c.Name, records); err != nil {
			return nil, err
		}
		if log != nil {
			log.WithField("count", len(records)).Infof("Fetched %s", c.Name)
		}
	}
	return export, nil
}
