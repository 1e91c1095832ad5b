package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"

	"github.com/takitsuba/kindle-audify/internal/storage"
)

// Provider extracts text from a stored document, writing JSON output
// shards under destPrefix and returning their object names in page order.
type Provider interface {
	ExtractText(ctx context.Context, srcObject, destPrefix string) ([]string, error)
}

// Vision implements Provider with Cloud Vision document text detection.
// The operation is idempotent: when destPrefix already holds output shards
// the detection call is skipped and the existing shards are returned.
type Vision struct {
	client    *vision.ImageAnnotatorClient
	store     storage.Gateway
	bucket    string
	batchSize int
	log       *slog.Logger
}

func NewVision(client *vision.ImageAnnotatorClient, store storage.Gateway, bucket string, batchSize int, log *slog.Logger) *Vision {
	if batchSize <= 0 {
		batchSize = 20
	}
	return &Vision{
		client:    client,
		store:     store,
		bucket:    bucket,
		batchSize: batchSize,
		log:       log,
	}
}

func (v *Vision) ExtractText(ctx context.Context, srcObject, destPrefix string) ([]string, error) {
	shards, err := v.listShards(ctx, destPrefix)
	if err != nil {
		return nil, err
	}
	if len(shards) > 0 {
		v.log.Info("ocr output already present, skipping detection", "prefix", destPrefix, "shards", len(shards))
		return shards, nil
	}

	req := &visionpb.AsyncBatchAnnotateFilesRequest{
		Requests: []*visionpb.AsyncAnnotateFileRequest{{
			InputConfig: &visionpb.InputConfig{
				GcsSource: &visionpb.GcsSource{Uri: v.uri(srcObject)},
				MimeType:  "application/pdf",
			},
			Features: []*visionpb.Feature{{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION}},
			OutputConfig: &visionpb.OutputConfig{
				GcsDestination: &visionpb.GcsDestination{Uri: v.uri(destPrefix) + "/"},
				BatchSize:      int32(v.batchSize),
			},
		}},
	}

	v.log.Info("starting text detection", "source", srcObject, "prefix", destPrefix)
	op, err := v.client.AsyncBatchAnnotateFiles(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("start text detection: %w", err)
	}
	if _, err := op.Wait(ctx); err != nil {
		return nil, fmt.Errorf("text detection: %w", err)
	}

	shards, err = v.listShards(ctx, destPrefix)
	if err != nil {
		return nil, err
	}
	if len(shards) == 0 {
		return nil, fmt.Errorf("text detection produced no output under %s", destPrefix)
	}
	return shards, nil
}

func (v *Vision) listShards(ctx context.Context, prefix string) ([]string, error) {
	names, err := v.store.List(ctx, prefix+"/")
	if err != nil {
		return nil, fmt.Errorf("list ocr output: %w", err)
	}
	var shards []string
	for _, name := range names {
		if strings.HasSuffix(name, ".json") {
			shards = append(shards, name)
		}
	}
	SortShards(shards)
	return shards, nil
}

func (v *Vision) uri(object string) string {
	return "gs://" + v.bucket + "/" + object
}

var shardNumber = regexp.MustCompile(`\d+`)

// SortShards orders shard names by the first number in each name, so that
// "output-2-to-3.json" sorts after "output-1-to-2.json" regardless of the
// store's lexical listing order.
func SortShards(shards []string) {
	sort.SliceStable(shards, func(i, j int) bool {
		return shardOrdinal(shards[i]) < shardOrdinal(shards[j])
	})
}

func shardOrdinal(name string) int {
	m := shardNumber.FindString(path.Base(name))
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}
