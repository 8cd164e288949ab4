package minio

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/qiyas/continuity/internal/infrastructure/monitoring/logging"
	"github.com/qiyas/continuity/pkg/errors"
	"github.com/qiyas/continuity/pkg/types/common"
)

// SheetArchiver stores audit copies of uploaded recommendation sheets,
// one object per upload batch, grouped by index.
type SheetArchiver struct {
	client *Client
	logger logging.Logger
}

func NewSheetArchiver(client *Client, logger logging.Logger) *SheetArchiver {
	return &SheetArchiver{
		client: client,
		logger: logger,
	}
}

// Archive writes the raw sheet under <indexID>/<timestamp>_<fileName>.
func (a *SheetArchiver) Archive(ctx context.Context, indexID common.ID, fileName string, raw []byte) error {
	if a.client.isClosed() {
		return ErrClientClosed
	}
	if len(raw) == 0 {
		return errors.New(errors.ErrCodeValidation, "empty sheet payload")
	}

	objectKey := a.objectKey(indexID, fileName)
	_, err := a.client.api.PutObject(ctx, a.client.Bucket(), objectKey,
		bytes.NewReader(raw), int64(len(raw)), minio.PutObjectOptions{
			ContentType: contentTypeFor(fileName),
			UserMetadata: map[string]string{
				"index-id":      string(indexID),
				"original-name": fileName,
			},
		})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeUploadArchiveFailed, "failed to archive sheet")
	}

	a.logger.Info("Sheet archived",
		logging.String("index_id", string(indexID)),
		logging.String("object_key", objectKey),
		logging.Int("size_bytes", len(raw)))
	return nil
}

// ListArchived returns the object keys archived for one index, newest last.
func (a *SheetArchiver) ListArchived(ctx context.Context, indexID common.ID) ([]string, error) {
	if a.client.isClosed() {
		return nil, ErrClientClosed
	}

	var keys []string
	objects := a.client.api.ListObjects(ctx, a.client.Bucket(), minio.ListObjectsOptions{
		Prefix:    string(indexID) + "/",
		Recursive: true,
	})
	for obj := range objects {
		if obj.Err != nil {
			return nil, errors.Wrap(obj.Err, errors.ErrCodeExternalService, "failed to list archived sheets")
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

func (a *SheetArchiver) objectKey(indexID common.ID, fileName string) string {
	name := path.Base(fileName)
	if name == "" || name == "." || name == "/" {
		name = "upload.xlsx"
	}
	return fmt.Sprintf("%s/%s_%s", indexID, time.Now().UTC().Format("20060102T150405Z"), name)
}

func contentTypeFor(fileName string) string {
	switch strings.ToLower(path.Ext(fileName)) {
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".xls":
		return "application/vnd.ms-excel"
	case ".csv":
		return "text/csv"
	default:
		return "application/octet-stream"
	}
}
