// Package zip bundles generated images into a single archive.
package zip

import (
	"archive/zip"
	"bytes"
	"time"

	"github.com/pkg/errors"
)

type Asset struct {
	Filename string
	Data     []byte
}

// ArchiveAssets writes assets into an in-memory zip in the given order.
func ArchiveAssets(assets []Asset) ([]byte, error) {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	now := time.Now()
	for _, asset := range assets {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: asset.Filename, Method: zip.Store, Modified: now})
		if err != nil {
			return nil, errors.Wrapf(err, "zip: create %s", asset.Filename)
		}
		if _, err := w.Write(asset.Data); err != nil {
			return nil, errors.Wrapf(err, "zip: write %s", asset.Filename)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, errors.Wrap(err, "zip: close")
	}
	return buf.Bytes(), nil
}
