// Package media turns uploaded pictures (shop logo, staff avatar) into small
// webp files in object storage.
package media

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Uploader struct {
	store Storage
}

func NewUploader(store Storage) *Uploader {
	return &Uploader{store: store}
}

// Upload optimizes data for kind and stores it under the shop prefix. A new
// key is used on every upload so CDN caches never serve the old picture.
func (u *Uploader) Upload(ctx context.Context, kind string, barbershopID, ownerID uint, data []byte) (string, error) {
	maxDim, err := maxDimension(kind)
	if err != nil {
		return "", err
	}

	out, err := Optimize(data, maxDim)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("barbershops/%d/%s/%d-%s.webp", barbershopID, kind, ownerID, uuid.NewString())
	return u.store.Put(ctx, key, out, "image/webp")
}
