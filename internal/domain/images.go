package domain

import "context"

// ImageStore decides how a captured image is referenced from a report.
// It returns the string stored in Report.Image.
type ImageStore interface {
	Put(ctx context.Context, reportID string, image Image) (string, error)
}

// InlineImageStore keeps images inside the report as data URLs.
type InlineImageStore struct{}

func (InlineImageStore) Put(_ context.Context, _ string, image Image) (string, error) {
	if len(image.Data) == 0 {
		return "", ErrEmptyImage
	}
	return image.DataURL(), nil
}
